package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE automations (
				id VARCHAR(255) PRIMARY KEY,
				account_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				trigger_type VARCHAR(64) NOT NULL,
				trigger_config JSONB NOT NULL DEFAULT '{}',
				flow_definition JSONB NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_automations_account_trigger
				ON automations(account_id, trigger_type)
				WHERE is_active;

			CREATE TABLE enrollments (
				id VARCHAR(255) PRIMARY KEY,
				automation_id VARCHAR(255) NOT NULL REFERENCES automations(id) ON DELETE CASCADE,
				account_id VARCHAR(255) NOT NULL,
				email VARCHAR(320) NOT NULL,
				customer_id VARCHAR(255),
				context_data JSONB NOT NULL DEFAULT '{}',
				status VARCHAR(16) NOT NULL CHECK (status IN ('ACTIVE', 'COMPLETED')),
				current_node_id VARCHAR(255),
				next_run_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				CONSTRAINT enrollments_pointer_check
					CHECK ((status = 'ACTIVE') = (current_node_id IS NOT NULL))
			);

			CREATE INDEX idx_enrollments_status_next_run_at ON enrollments(status, next_run_at);
			CREATE INDEX idx_enrollments_automation_id ON enrollments(automation_id);
		`,
		2: `
			-- Leases keep two workers from stepping the same enrollment at once
			ALTER TABLE enrollments
				ADD COLUMN lease_owner VARCHAR(64),
				ADD COLUMN lease_expires_at TIMESTAMP WITH TIME ZONE;
		`,
		3: `
			-- Lease tokens are the worker id plus a uuid; worker ids are pod names
			ALTER TABLE enrollments ALTER COLUMN lease_owner TYPE TEXT;
		`,
	}
}
