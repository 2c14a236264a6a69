// ABOUTME: SQLite schema for swarms, agents, tasks, sessions, and orchestration events.
// ABOUTME: WAL mode and foreign keys are enabled on open; migrations are idempotent CREATE TABLE IF NOT EXISTS.
package store

const schema = `
CREATE TABLE IF NOT EXISTS swarms (
	swarm_id   TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL,
	num_agents INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	metadata   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agents (
	agent_id    TEXT PRIMARY KEY,
	swarm_id    TEXT NOT NULL,
	role        TEXT NOT NULL,
	state       TEXT NOT NULL,
	assigned_at TEXT NOT NULL,
	FOREIGN KEY (swarm_id) REFERENCES swarms(swarm_id)
);

CREATE TABLE IF NOT EXISTS tasks (
	task_id     TEXT PRIMARY KEY,
	swarm_id    TEXT NOT NULL,
	agent_id    TEXT,
	description TEXT NOT NULL,
	status      TEXT NOT NULL,
	priority    INTEGER NOT NULL,
	data        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	retry_count INTEGER NOT NULL DEFAULT 0,
	last_error  TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (swarm_id) REFERENCES swarms(swarm_id),
	FOREIGN KEY (agent_id) REFERENCES agents(agent_id)
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	swarm_id   TEXT NOT NULL,
	data       TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	FOREIGN KEY (swarm_id) REFERENCES swarms(swarm_id)
);

CREATE TABLE IF NOT EXISTS orchestration_events (
	event_id   TEXT PRIMARY KEY,
	swarm_id   TEXT NOT NULL,
	task_id    TEXT,
	event_type TEXT NOT NULL,
	details    TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	FOREIGN KEY (swarm_id) REFERENCES swarms(swarm_id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_swarm_status ON tasks(swarm_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at);
CREATE INDEX IF NOT EXISTS idx_events_swarm ON orchestration_events(swarm_id, timestamp);
`

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
