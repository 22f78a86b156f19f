package postgres

// =============================================================================
// SQL Query Constants - user_states
// =============================================================================

const (
	SQLSelectUserState = `
		SELECT user_id, active_character_id, points, roll_day, roll_used,
		       pity_mythic, pity_legendary, inventory_upgrades, updated_at
		FROM user_states
		WHERE user_id = $1
	`

	SQLInsertDefaultUserState = `
		INSERT INTO user_states (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`

	SQLUpsertUserState = `
		INSERT INTO user_states (user_id, active_character_id, points, roll_day, roll_used,
		                         pity_mythic, pity_legendary, inventory_upgrades, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			active_character_id = EXCLUDED.active_character_id,
			points = EXCLUDED.points,
			roll_day = EXCLUDED.roll_day,
			roll_used = EXCLUDED.roll_used,
			pity_mythic = EXCLUDED.pity_mythic,
			pity_legendary = EXCLUDED.pity_legendary,
			inventory_upgrades = EXCLUDED.inventory_upgrades,
			updated_at = NOW()
	`

	SQLSelectUpgradesForUpdate = `
		SELECT inventory_upgrades
		FROM user_states
		WHERE user_id = $1
		FOR UPDATE
	`

	SQLUpdateUpgrades = `
		UPDATE user_states
		SET inventory_upgrades = $2, updated_at = NOW()
		WHERE user_id = $1
	`
)

// =============================================================================
// SQL Query Constants - owned_characters / custom_profiles
// =============================================================================

const (
	SQLSelectOwnedIDs = `
		SELECT character_id FROM owned_characters WHERE user_id = $1
	`

	SQLSelectCustomIDs = `
		SELECT character_id FROM custom_profiles WHERE user_id = $1
	`

	SQLSelectOwnsRegistry = `
		SELECT 1 FROM owned_characters WHERE user_id = $1 AND character_id = $2 LIMIT 1
	`

	SQLSelectOwnsCustom = `
		SELECT 1 FROM custom_profiles WHERE user_id = $1 AND character_id = $2 LIMIT 1
	`

	SQLInsertOwned = `
		INSERT INTO owned_characters (user_id, character_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, character_id) DO NOTHING
	`

	SQLDeleteOwned = `
		DELETE FROM owned_characters WHERE user_id = $1 AND character_id = $2
	`

	SQLDeleteCustom = `
		DELETE FROM custom_profiles WHERE user_id = $1 AND character_id = $2
	`

	SQLUpsertCustomProfile = `
		INSERT INTO custom_profiles (user_id, character_id, name, prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, character_id) DO UPDATE SET
			name = EXCLUDED.name,
			prompt = EXCLUDED.prompt,
			updated_at = NOW()
	`

	SQLSelectCustomProfile = `
		SELECT user_id, character_id, name, prompt, created_at
		FROM custom_profiles
		WHERE user_id = $1 AND character_id = $2
	`

	SQLSelectCustomProfiles = `
		SELECT user_id, character_id, name, prompt, created_at
		FROM custom_profiles
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
)

// =============================================================================
// SQL Query Constants - wallets / points_ledger
// =============================================================================

const (
	SQLSelectWallet = `
		SELECT user_id, balance, last_claim_day, first_claimed,
		       streak_saved, restore_deadline_day, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	SQLSelectWalletForUpdate = SQLSelectWallet + `
		FOR UPDATE
	`

	SQLInsertDefaultWallet = `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`

	SQLUpdateWallet = `
		UPDATE wallets
		SET balance = $2, last_claim_day = $3, first_claimed = $4,
		    streak_saved = $5, restore_deadline_day = $6, updated_at = NOW()
		WHERE user_id = $1
	`

	SQLInsertLedger = `
		INSERT INTO points_ledger (user_id, delta, reason, meta_json)
		VALUES ($1, $2, $3, $4)
	`

	SQLSelectEligibleReminderUsers = `
		SELECT DISTINCT user_id
		FROM wallets
		WHERE last_claim_day = $1 OR last_claim_day = $2
		LIMIT $3
	`
)
