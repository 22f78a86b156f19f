package schema

// SchemaSQL contains the full database schema initialization script
const SchemaSQL = `
-- Durable per-user economy state

CREATE TABLE IF NOT EXISTS user_states (
    user_id BIGINT PRIMARY KEY,
    active_character_id VARCHAR(100) NOT NULL DEFAULT '',
    points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
    roll_day VARCHAR(8) NOT NULL DEFAULT '',
    roll_used INTEGER NOT NULL DEFAULT 0,
    pity_mythic INTEGER NOT NULL DEFAULT 0,
    pity_legendary INTEGER NOT NULL DEFAULT 0,
    inventory_upgrades INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Registry-owned characters (granted/purchased/rolled from the catalog)
CREATE TABLE IF NOT EXISTS owned_characters (
    id SERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    character_id VARCHAR(100) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, character_id)
);
CREATE INDEX IF NOT EXISTS idx_owned_characters_user ON owned_characters (user_id);

-- User-authored character profiles
CREATE TABLE IF NOT EXISTS custom_profiles (
    id SERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    character_id VARCHAR(100) NOT NULL,
    name VARCHAR(50) NOT NULL DEFAULT '',
    prompt TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, character_id)
);
CREATE INDEX IF NOT EXISTS idx_custom_profiles_user ON custom_profiles (user_id);

-- Points wallets (balances and claim streak metadata are global per user)
CREATE TABLE IF NOT EXISTS wallets (
    user_id BIGINT PRIMARY KEY,
    balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    last_claim_day VARCHAR(8) NOT NULL DEFAULT '',
    first_claimed BOOLEAN NOT NULL DEFAULT FALSE,
    streak_saved INTEGER NOT NULL DEFAULT 0,
    restore_deadline_day VARCHAR(8) NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_wallets_last_claim_day ON wallets (last_claim_day);

-- Points audit ledger
CREATE TABLE IF NOT EXISTS points_ledger (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    delta INTEGER NOT NULL,
    reason VARCHAR(50) NOT NULL,
    meta_json TEXT NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_points_ledger_user ON points_ledger (user_id);
`
