package postgresql

// migrations returns the ordered schema migrations for the analytics store.
// The alerts table shape matches the operational alert record: alert_type,
// severity, entity_id, timestamp, metadata, acknowledged integer default 0.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS checkpoints (
				thread_id TEXT NOT NULL,
				sequence_no INTEGER NOT NULL,
				state JSONB NOT NULL,
				written_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (thread_id, sequence_no)
			);

			CREATE TABLE IF NOT EXISTS alerts (
				id SERIAL PRIMARY KEY,
				alert_type TEXT NOT NULL,
				severity TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL,
				metadata JSONB,
				acknowledged INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_alerts_entity ON alerts (entity_id, timestamp);

			CREATE TABLE IF NOT EXISTS analytics (
				id SERIAL PRIMARY KEY,
				kind TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL,
				fields JSONB NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_analytics_kind ON analytics (kind, entity_id, timestamp);
		`,
		2: `
			CREATE TABLE IF NOT EXISTS detections (
				id SERIAL PRIMARY KEY,
				camera_id TEXT NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL,
				class_name TEXT NOT NULL,
				confidence DOUBLE PRECISION NOT NULL,
				bbox JSONB NOT NULL,
				track_id INTEGER
			);
			CREATE INDEX IF NOT EXISTS idx_detections_camera_time ON detections (camera_id, timestamp);
		`,
	}
}
