package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(255) PRIMARY KEY,
		email VARCHAR(255) UNIQUE,
		credits INTEGER NOT NULL DEFAULT 0,
		stripe_customer_id VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		name TEXT,
		email TEXT,
		phone_number TEXT,
		company_name TEXT,
		contact_position TEXT,
		address TEXT,
		status VARCHAR(50) NOT NULL DEFAULT 'new',
		tags TEXT[],
		added_at_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_tags (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		tag_name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, tag_name)
	)`,
	`CREATE TABLE IF NOT EXISTS tools (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		category VARCHAR(100),
		credit_cost INTEGER NOT NULL DEFAULT 1,
		execution_type VARCHAR(50) NOT NULL DEFAULT 'webhook',
		input_schema JSONB NOT NULL DEFAULT '{}'::jsonb,
		output_schema JSONB NOT NULL DEFAULT '{}'::jsonb,
		rating NUMERIC(3,2),
		total_uses INTEGER NOT NULL DEFAULT 0,
		webhook_link TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tool_executions (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		tool_id VARCHAR(255) NOT NULL,
		input_data JSONB NOT NULL DEFAULT '{}'::jsonb,
		output_data JSONB,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		credits_used INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		tool_id VARCHAR(255) NOT NULL,
		credits_used INTEGER NOT NULL,
		input_data JSONB,
		output_data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL UNIQUE,
		stripe_subscription_id VARCHAR(255) NOT NULL,
		plan_name VARCHAR(255) NOT NULL,
		credits_per_month INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(50) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stripe_events (
		event_id VARCHAR(255) PRIMARY KEY,
		event_type VARCHAR(100) NOT NULL,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key VARCHAR(255) PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// IndexDefinitions back the per-user listings and the stale execution sweep
var IndexDefinitions = []string{
	`CREATE INDEX IF NOT EXISTS idx_contacts_user_added ON contacts (user_id, added_at_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_tags ON contacts USING GIN (tags)`,
	`CREATE INDEX IF NOT EXISTS idx_tool_executions_user_tool ON tool_executions (user_id, tool_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_tool_executions_pending ON tool_executions (created_at) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id, created_at DESC)`,
}
