package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE pipeline_runs (
				id VARCHAR(64) PRIMARY KEY,
				status VARCHAR(20) NOT NULL CHECK (status IN ('idle', 'running', 'completed', 'failed')),
				stage SMALLINT NOT NULL CHECK (stage BETWEEN 0 AND 8),
				video_name TEXT NOT NULL,
				framework VARCHAR(64) NOT NULL,
				snapshot JSONB NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				finished_at TIMESTAMP WITH TIME ZONE,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_pipeline_runs_status ON pipeline_runs(status);
			CREATE INDEX idx_pipeline_runs_started_at ON pipeline_runs(started_at);
		`,
		2: `
			CREATE TABLE pipeline_logs (
				run_id VARCHAR(64) NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
				seq INTEGER NOT NULL,
				logged_at TIMESTAMP WITH TIME ZONE NOT NULL,
				message TEXT NOT NULL,
				PRIMARY KEY (run_id, seq)
			);
		`,
	}
}
