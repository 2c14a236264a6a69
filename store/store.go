// ABOUTME: SQLite-backed Store implementing the C1 persistence contract: transactional, concurrent-reader/serialized-writer.
// ABOUTME: Every Create*/Update* is durable (committed) before returning, satisfying the crash-survival requirement.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/2389-research/swarmkernel/core"
)

// Store is the sole owner of persistent rows for swarms, agents, tasks,
// sessions, and events.
type Store struct {
	db         *sql.DB
	actors     *actorRegistry
	maxRetries int
}

// Open opens or creates a SQLite database at path, enables WAL mode and
// foreign keys, and applies the schema migrations.
func Open(path string, maxRetries int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, actors: newActorRegistry(db), maxRetries: maxRetries}, nil
}

// Close stops every swarm actor and the idle reaper, then releases the
// underlying database handle.
func (s *Store) Close() error {
	s.actors.close()
	return s.db.Close()
}

// CreateSwarm inserts a swarm together with its agents and tasks in one
// transaction, serialized through a fresh actor for the new swarm ID.
func (s *Store) CreateSwarm(sc *core.Scope, agents []core.Agent, tasks []core.Task) (ulid.ULID, error) {
	swarmID := core.NewULID()

	_, err := s.actors.submit(swarmID.String(), func(tx *sql.Tx) (any, error) {
		metadata, err := json.Marshal(sc.ToMetadata())
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
		now := time.Now().UTC()
		if _, err := tx.Exec(
			`INSERT INTO swarms (swarm_id, name, status, num_agents, created_at, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
			swarmID.String(), sc.Project, string(core.SwarmIdle), len(agents), now.Format(timeLayout), string(metadata),
		); err != nil {
			return nil, fmt.Errorf("insert swarm: %w", err)
		}

		for _, a := range agents {
			if err := insertAgent(tx, swarmID, a); err != nil {
				return nil, err
			}
		}
		for _, t := range tasks {
			if err := insertTask(tx, swarmID, t, now); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return ulid.ULID{}, err
	}
	return swarmID, nil
}

func insertAgent(tx *sql.Tx, swarmID ulid.ULID, a core.Agent) error {
	state, err := json.Marshal(a.State)
	if err != nil {
		return fmt.Errorf("marshal agent state: %w", err)
	}
	assignedAt := a.AssignedAt
	if assignedAt.IsZero() {
		assignedAt = time.Now().UTC()
	}
	_, err = tx.Exec(
		`INSERT INTO agents (agent_id, swarm_id, role, state, assigned_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID.String(), swarmID.String(), a.Role, string(state), assignedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

func insertTask(tx *sql.Tx, swarmID ulid.ULID, t core.Task, now time.Time) error {
	data, err := json.Marshal(t.Data)
	if err != nil {
		return fmt.Errorf("marshal task data: %w", err)
	}
	var agentID any
	if t.AgentID != nil {
		agentID = t.AgentID.String()
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err = tx.Exec(
		`INSERT INTO tasks (task_id, swarm_id, agent_id, description, status, priority, data, created_at, updated_at, retry_count, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), swarmID.String(), agentID, t.Data.Title, string(core.TaskPending), t.Priority, string(data),
		created.Format(timeLayout), created.Format(timeLayout), 0, "",
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetSwarm reads a consistent snapshot of a swarm, its agents, and its tasks.
func (s *Store) GetSwarm(id ulid.ULID) (*core.Swarm, []core.Agent, []core.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	swarm, err := scanSwarm(tx.QueryRow(`SELECT swarm_id, name, status, num_agents, created_at, metadata FROM swarms WHERE swarm_id = ?`, id.String()))
	if err != nil {
		return nil, nil, nil, err
	}
	agents, err := queryAgents(tx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	tasks, err := queryTasks(tx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, nil, err
	}
	return swarm, agents, tasks, nil
}

// ListSwarms returns every swarm row, most recently created first.
func (s *Store) ListSwarms() ([]core.Swarm, error) {
	rows, err := s.db.Query(`SELECT swarm_id, name, status, num_agents, created_at, metadata FROM swarms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query swarms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var swarms []core.Swarm
	for rows.Next() {
		var (
			idStr, name, status, createdAt, metadata string
			numAgents                                int
		)
		if err := rows.Scan(&idStr, &name, &status, &numAgents, &createdAt, &metadata); err != nil {
			return nil, fmt.Errorf("scan swarm: %w", err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse swarm id: %w", err)
		}
		created, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		var meta map[string]any
		if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		swarms = append(swarms, core.Swarm{ID: id, Name: name, Status: core.SwarmStatus(status), NumAgents: numAgents, CreatedAt: created, Metadata: meta})
	}
	return swarms, rows.Err()
}

func scanSwarm(row *sql.Row) (*core.Swarm, error) {
	var (
		idStr, name, status, createdAt, metadata string
		numAgents                                int
	)
	if err := row.Scan(&idStr, &name, &status, &numAgents, &createdAt, &metadata); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFound("swarm not found")
		}
		return nil, fmt.Errorf("scan swarm: %w", err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse swarm id: %w", err)
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &core.Swarm{
		ID:        id,
		Name:      name,
		Status:    core.SwarmStatus(status),
		NumAgents: numAgents,
		CreatedAt: created,
		Metadata:  meta,
	}, nil
}

func queryAgents(tx *sql.Tx, swarmID ulid.ULID) ([]core.Agent, error) {
	rows, err := tx.Query(`SELECT agent_id, role, state, assigned_at FROM agents WHERE swarm_id = ? ORDER BY assigned_at ASC`, swarmID.String())
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []core.Agent
	for rows.Next() {
		var idStr, role, state, assignedAt string
		if err := rows.Scan(&idStr, &role, &state, &assignedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse agent id: %w", err)
		}
		var st core.AgentState
		if err := json.Unmarshal([]byte(state), &st); err != nil {
			return nil, fmt.Errorf("unmarshal agent state: %w", err)
		}
		assigned, err := time.Parse(timeLayout, assignedAt)
		if err != nil {
			return nil, fmt.Errorf("parse assigned_at: %w", err)
		}
		agents = append(agents, core.Agent{ID: id, SwarmID: swarmID, Role: role, State: st, AssignedAt: assigned})
	}
	return agents, rows.Err()
}

func queryTasks(tx *sql.Tx, swarmID ulid.ULID) ([]core.Task, error) {
	rows, err := tx.Query(
		`SELECT task_id, agent_id, description, status, priority, data, created_at, updated_at, retry_count, last_error
		 FROM tasks WHERE swarm_id = ? ORDER BY priority DESC, created_at ASC`, swarmID.String())
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []core.Task
	for rows.Next() {
		t, err := scanTaskRow(rows, swarmID)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type taskScanner interface {
	Scan(dest ...any) error
}

func scanTaskRow(rows taskScanner, swarmID ulid.ULID) (core.Task, error) {
	var (
		idStr, description, status, data, createdAt, updatedAt, lastError string
		agentID                                                           sql.NullString
		priority, retryCount                                               int
	)
	if err := rows.Scan(&idStr, &agentID, &description, &status, &priority, &data, &createdAt, &updatedAt, &retryCount, &lastError); err != nil {
		return core.Task{}, fmt.Errorf("scan task: %w", err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return core.Task{}, fmt.Errorf("parse task id: %w", err)
	}
	var agentIDPtr *ulid.ULID
	if agentID.Valid && agentID.String != "" {
		parsed, err := ulid.Parse(agentID.String)
		if err != nil {
			return core.Task{}, fmt.Errorf("parse task agent id: %w", err)
		}
		agentIDPtr = &parsed
	}
	var taskData core.TaskData
	if err := json.Unmarshal([]byte(data), &taskData); err != nil {
		return core.Task{}, fmt.Errorf("unmarshal task data: %w", err)
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return core.Task{}, fmt.Errorf("parse created_at: %w", err)
	}
	updated, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return core.Task{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return core.Task{
		ID:          id,
		SwarmID:     swarmID,
		AgentID:     agentIDPtr,
		Description: description,
		Status:      core.TaskStatus(status),
		Priority:    priority,
		Data:        taskData,
		CreatedAt:   created,
		UpdatedAt:   updated,
		RetryCount:  retryCount,
		LastError:   lastError,
	}, nil
}

// UpdateSwarmStatus validates the transition and persists it.
func (s *Store) UpdateSwarmStatus(id ulid.ULID, newStatus core.SwarmStatus) error {
	_, err := s.actors.submit(id.String(), func(tx *sql.Tx) (any, error) {
		var current string
		if err := tx.QueryRow(`SELECT status FROM swarms WHERE swarm_id = ?`, id.String()).Scan(&current); err != nil {
			if err == sql.ErrNoRows {
				return nil, core.NewNotFound("swarm not found")
			}
			return nil, err
		}
		if !core.ValidSwarmTransition(core.SwarmStatus(current), newStatus) {
			return nil, core.NewInvalidTransition(fmt.Sprintf("swarm %s->%s", current, newStatus))
		}
		_, err := tx.Exec(`UPDATE swarms SET status = ? WHERE swarm_id = ?`, string(newStatus), id.String())
		return nil, err
	})
	return err
}

// UpdateTaskStatus validates the transition, updates status/output/updated_at,
// and records last_error when transitioning to failed.
func (s *Store) UpdateTaskStatus(swarmID, taskID ulid.ULID, newStatus core.TaskStatus, output json.RawMessage, lastError string) error {
	_, err := s.actors.submit(swarmID.String(), func(tx *sql.Tx) (any, error) {
		var current string
		if err := tx.QueryRow(`SELECT status FROM tasks WHERE task_id = ? AND swarm_id = ?`, taskID.String(), swarmID.String()).Scan(&current); err != nil {
			if err == sql.ErrNoRows {
				return nil, core.NewNotFound("task not found")
			}
			return nil, err
		}
		if !core.ValidTaskTransition(core.TaskStatus(current), newStatus) {
			return nil, core.NewInvalidTransition(fmt.Sprintf("task %s->%s", current, newStatus))
		}
		now := time.Now().UTC().Format(timeLayout)
		if newStatus == core.TaskFailed {
			_, err := tx.Exec(`UPDATE tasks SET status = ?, updated_at = ?, last_error = ? WHERE task_id = ?`, string(newStatus), now, lastError, taskID.String())
			return nil, err
		}
		if output != nil {
			var data core.TaskData
			var raw string
			if err := tx.QueryRow(`SELECT data FROM tasks WHERE task_id = ?`, taskID.String()).Scan(&raw); err != nil {
				return nil, err
			}
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				return nil, err
			}
			data.Outputs = output
			encoded, err := json.Marshal(data)
			if err != nil {
				return nil, err
			}
			_, err = tx.Exec(`UPDATE tasks SET status = ?, updated_at = ?, data = ? WHERE task_id = ?`, string(newStatus), now, string(encoded), taskID.String())
			return nil, err
		}
		_, err := tx.Exec(`UPDATE tasks SET status = ?, updated_at = ? WHERE task_id = ?`, string(newStatus), now, taskID.String())
		return nil, err
	})
	return err
}

// IncrementRetry bumps a task's retry_count, failing with RetryBudgetExceeded
// when the count already equals MAX_RETRIES.
func (s *Store) IncrementRetry(swarmID, taskID ulid.ULID) (int, error) {
	value, err := s.actors.submit(swarmID.String(), func(tx *sql.Tx) (any, error) {
		var count int
		if err := tx.QueryRow(`SELECT retry_count FROM tasks WHERE task_id = ? AND swarm_id = ?`, taskID.String(), swarmID.String()).Scan(&count); err != nil {
			if err == sql.ErrNoRows {
				return nil, core.NewNotFound("task not found")
			}
			return nil, err
		}
		if count >= s.maxRetries {
			return nil, core.NewRetryBudgetExceeded(fmt.Sprintf("task %s exceeded %d retries", taskID, s.maxRetries))
		}
		newCount := count + 1
		if _, err := tx.Exec(`UPDATE tasks SET retry_count = ? WHERE task_id = ?`, newCount, taskID.String()); err != nil {
			return nil, err
		}
		return newCount, nil
	})
	if err != nil {
		return 0, err
	}
	return value.(int), nil
}

// ListFailedTasks returns every failed task updated at or after since, across
// all swarms, ordered by updated_at ascending as RetryMonitor requires.
func (s *Store) ListFailedTasks(since time.Time) ([]core.Task, error) {
	rows, err := s.db.Query(
		`SELECT task_id, swarm_id, agent_id, description, status, priority, data, created_at, updated_at, retry_count, last_error
		 FROM tasks WHERE status = ? AND updated_at >= ? ORDER BY updated_at ASC`,
		string(core.TaskFailed), since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query failed tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []core.Task
	for rows.Next() {
		var (
			idStr, swarmIDStr, description, status, data, createdAt, updatedAt, lastError string
			agentID                                                                       sql.NullString
			priority, retryCount                                                          int
		)
		if err := rows.Scan(&idStr, &swarmIDStr, &agentID, &description, &status, &priority, &data, &createdAt, &updatedAt, &retryCount, &lastError); err != nil {
			return nil, fmt.Errorf("scan failed task: %w", err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse task id: %w", err)
		}
		swarmID, err := ulid.Parse(swarmIDStr)
		if err != nil {
			return nil, fmt.Errorf("parse swarm id: %w", err)
		}
		var agentIDPtr *ulid.ULID
		if agentID.Valid && agentID.String != "" {
			parsed, err := ulid.Parse(agentID.String)
			if err != nil {
				return nil, fmt.Errorf("parse task agent id: %w", err)
			}
			agentIDPtr = &parsed
		}
		var taskData core.TaskData
		if err := json.Unmarshal([]byte(data), &taskData); err != nil {
			return nil, fmt.Errorf("unmarshal task data: %w", err)
		}
		created, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		updated, err := time.Parse(timeLayout, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		tasks = append(tasks, core.Task{
			ID: id, SwarmID: swarmID, AgentID: agentIDPtr, Description: description,
			Status: core.TaskStatus(status), Priority: priority, Data: taskData,
			CreatedAt: created, UpdatedAt: updated, RetryCount: retryCount, LastError: lastError,
		})
	}
	return tasks, rows.Err()
}

// AppendEvent appends an orchestration event; this table is append-only.
func (s *Store) AppendEvent(event core.OrchestrationEvent) error {
	_, err := s.actors.submit(event.SwarmID.String(), func(tx *sql.Tx) (any, error) {
		var taskID any
		if event.TaskID != nil {
			taskID = event.TaskID.String()
		}
		ts := event.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		_, err := tx.Exec(
			`INSERT INTO orchestration_events (event_id, swarm_id, task_id, event_type, details, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
			core.NewULID().String(), event.SwarmID.String(), taskID, string(event.EventType), event.Details, ts.Format(timeLayout),
		)
		return nil, err
	})
	return err
}

// HealthSummary is the AggregateHealth result shape for the health endpoint.
type HealthSummary struct {
	CountsByStatus     map[string]int
	RecentIntervention int
	RetrySuccessRate   float64
}

// AggregateHealth computes per-status task counts, a count of recent
// (retry_count > 0) interventions, and the fraction of retried tasks that
// eventually completed.
func (s *Store) AggregateHealth(swarmID ulid.ULID) (*HealthSummary, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM tasks WHERE swarm_id = ? GROUP BY status`, swarmID.String())
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	var retried, retriedCompleted int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE swarm_id = ? AND retry_count > 0`, swarmID.String()).Scan(&retried); err != nil {
		return nil, fmt.Errorf("count retried tasks: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE swarm_id = ? AND retry_count > 0 AND status = ?`, swarmID.String(), string(core.TaskCompleted)).Scan(&retriedCompleted); err != nil {
		return nil, fmt.Errorf("count retried-completed tasks: %w", err)
	}

	rate := 0.0
	if retried > 0 {
		rate = float64(retriedCompleted) / float64(retried)
	}
	return &HealthSummary{CountsByStatus: counts, RecentIntervention: retried, RetrySuccessRate: rate}, nil
}
