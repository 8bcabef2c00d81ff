package knowledge

// schemaStatements creates the entity tables, their FTS5 external-content
// indexes, the sync triggers and the link table. Every statement is
// idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS findings (
		id TEXT PRIMARY KEY,
		research_id TEXT,
		content TEXT NOT NULL,
		source TEXT,
		confidence TEXT NOT NULL DEFAULT 'medium',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hypotheses (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unverified',
		reason TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS insights (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		confidence TEXT NOT NULL DEFAULT 'medium',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS research_items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		issue_id TEXT,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS issues (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL DEFAULT 'bug',
		title TEXT NOT NULL,
		description TEXT,
		priority INTEGER NOT NULL DEFAULT 3,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS studies (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		question TEXT,
		summary TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_trail (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entity_links (
		id TEXT PRIMARY KEY,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		relation TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(source_type, source_id, target_type, target_id, relation)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entity_links_source ON entity_links(source_type, source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entity_links_target ON entity_links(target_type, target_id)`,
}

// ftsTable describes the FTS5 twin of one entity table.
type ftsTable struct {
	table   string
	fts     string
	columns []string
}

// ftsTables maps every kind to its content table and indexed columns.
var ftsTables = map[EntityKind]ftsTable{
	KindFinding:    {"findings", "findings_fts", []string{"content", "source"}},
	KindHypothesis: {"hypotheses", "hypotheses_fts", []string{"content", "reason"}},
	KindInsight:    {"insights", "insights_fts", []string{"content"}},
	KindResearch:   {"research_items", "research_fts", []string{"title", "description"}},
	KindTask:       {"tasks", "tasks_fts", []string{"title", "description"}},
	KindIssue:      {"issues", "issues_fts", []string{"title", "description"}},
	KindStudy:      {"studies", "studies_fts", []string{"topic", "question", "summary"}},
	KindAudit:      {"audit_trail", "audit_fts", []string{"entity_type", "entity_id", "action", "detail"}},
}

// ddl returns the virtual table and insert/delete triggers for t.
func (t ftsTable) ddl() []string {
	cols := joinCols(t.columns, "")
	newCols := joinCols(t.columns, "new.")
	oldCols := joinCols(t.columns, "old.")
	return []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS ` + t.fts + ` USING fts5(` + cols +
			`, content='` + t.table + `', content_rowid='rowid', tokenize='porter unicode61')`,
		`CREATE TRIGGER IF NOT EXISTS ` + t.fts + `_ai AFTER INSERT ON ` + t.table + ` BEGIN
			INSERT INTO ` + t.fts + `(rowid, ` + cols + `) VALUES (new.rowid, ` + newCols + `);
		END`,
		`CREATE TRIGGER IF NOT EXISTS ` + t.fts + `_ad AFTER DELETE ON ` + t.table + ` BEGIN
			INSERT INTO ` + t.fts + `(` + t.fts + `, rowid, ` + cols + `) VALUES ('delete', old.rowid, ` + oldCols + `);
		END`,
	}
}

func joinCols(cols []string, prefix string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += prefix + c
	}
	return out
}
