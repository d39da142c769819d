package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	is_admin      INTEGER NOT NULL DEFAULT 0 CHECK(is_admin IN (0, 1)),
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
	token_hash TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	persistent INTEGER NOT NULL DEFAULT 0 CHECK(persistent IN (0, 1)),
	expires_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id);

CREATE TABLE IF NOT EXISTS memberships (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role        TEXT NOT NULL CHECK(role IN ('owner', 'admin', 'editor', 'viewer')),
	permissions TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(project_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_memberships_user_id ON memberships(user_id);

CREATE TABLE IF NOT EXISTS todos (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	created_by        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	assigned_to       TEXT REFERENCES users(id) ON DELETE SET NULL,
	priority          TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high', 'urgent')),
	status            TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'in_progress', 'completed', 'cancelled')),
	due_date          DATETIME,
	estimated_minutes INTEGER CHECK(estimated_minutes IS NULL OR estimated_minutes >= 0),
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at      DATETIME,
	updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_todos_created_by ON todos(created_by);
CREATE INDEX IF NOT EXISTS idx_todos_assigned_to ON todos(assigned_to);
CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status);
CREATE INDEX IF NOT EXISTS idx_todos_due_date ON todos(due_date);

CREATE TABLE IF NOT EXISTS todo_projects (
	todo_id    TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	PRIMARY KEY (todo_id, project_id)
);

CREATE INDEX IF NOT EXISTS idx_todo_projects_project_id ON todo_projects(project_id);

CREATE TABLE IF NOT EXISTS recurrence_patterns (
	todo_id        TEXT PRIMARY KEY REFERENCES todos(id) ON DELETE CASCADE,
	frequency      TEXT NOT NULL CHECK(frequency IN ('daily', 'weekly', 'monthly')),
	interval_count INTEGER NOT NULL DEFAULT 1 CHECK(interval_count >= 1),
	ends_on        DATETIME,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS time_logs (
	id         TEXT PRIMARY KEY,
	todo_id    TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	minutes    INTEGER NOT NULL CHECK(minutes > 0),
	note       TEXT NOT NULL DEFAULT '',
	logged_at  DATETIME NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_time_logs_todo_id ON time_logs(todo_id);

CREATE TABLE IF NOT EXISTS project_messages (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_project_messages_project_id ON project_messages(project_id);

CREATE TABLE IF NOT EXISTS message_todos (
	message_id TEXT NOT NULL REFERENCES project_messages(id) ON DELETE CASCADE,
	todo_id    TEXT NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
	PRIMARY KEY (message_id, todo_id)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
