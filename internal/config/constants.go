package config

// DefaultRollWindowSeconds is the sliding roll window applied when
// ROLL_WINDOW_SECONDS is unset (5 hours).
const DefaultRollWindowSeconds = 18000
