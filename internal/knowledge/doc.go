// Package knowledge is the local knowledge base behind zen: findings,
// hypotheses, insights, research items, tasks, issues, studies, the audit
// trail, and the entity links that the decision graph is built from.
//
// Rows live in SQLite (modernc.org/sqlite). Every searchable table has an
// FTS5 external-content twin kept in sync by triggers, so Search* calls are
// plain MATCH queries ordered by FTS rank. A bleve index can mirror the same
// documents as an alternative lexical backend.
package knowledge
