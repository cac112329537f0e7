// Package prompts builds the grounding prompts sent to the inference backend.
package prompts

import (
	"strings"
)

// SchemaDDL is the fixed schema description embedded in every generation
// prompt. The embedding column is usable only through the pgvector distance
// operator; everything else is plain relational data.
const SchemaDDL = `CREATE TABLE activities (
    activity_id BIGINT PRIMARY KEY,
    activity_type VARCHAR(50),
    distance DOUBLE PRECISION,
    duration INTEGER,
    timestamp TIMESTAMP,
    embedding VECTOR(384)
);`

// queryRules is the behavioral contract the generator is asked to obey.
// These are textual constraints, not executable code: compliance is
// probabilistic, and the read-only gate downstream is the enforced boundary.
const queryRules = `## Query Rules
- Use the ` + "`timestamp`" + ` column for any time-based filter or bucketing.
- Use ` + "`distance`" + ` and ` + "`duration`" + ` for activity performance questions.
- ` + "`embedding`" + ` is a 384-dimensional vector. Compare embeddings only with the
  cosine distance operator ` + "`<=>`" + `, and only inside an ORDER BY clause or an
  explicit numeric comparison. Never use ` + "`<=>`" + ` bare in a join predicate.
- Every SELECT must return at minimum: activity_id, activity_type, distance,
  duration, timestamp.
- When you reference a CTE or subquery later in the statement, re-project every
  column the outer query needs. Do not drop columns across subquery boundaries.
- Extract date parts with EXTRACT(...) or DATE_TRUNC(...), never with
  nonstandard functions.
- Output the SQL query text only. No prose, no explanation.`

// workedExamples shows the generator the ordering, aggregation,
// time-bucketing, and similarity-search patterns we expect.
const workedExamples = `## Examples

### Example 1: Find my longest run
User Question: "What was my longest run?"
SQL Query:
SELECT activity_id, activity_type, distance, duration, timestamp
FROM activities
WHERE activity_type = 'Run'
ORDER BY distance DESC
LIMIT 1;

### Example 2: Find similar activities to my last run
User Question: "Find similar activities to my last 'Run' activity"
SQL Query:
WITH last_run AS (
    SELECT embedding FROM activities
    WHERE activity_type = 'Run'
    ORDER BY timestamp DESC
    LIMIT 1
)
SELECT activity_id, activity_type, distance, duration, timestamp,
       1 - (embedding <=> (SELECT embedding FROM last_run)) AS similarity_score
FROM activities
ORDER BY similarity_score DESC
LIMIT 5;

### Example 3: Find my most active month
User Question: "Which month was I most active?"
SQL Query:
SELECT DATE_TRUNC('month', timestamp) AS activity_month,
       COUNT(*) AS total_activities
FROM activities
GROUP BY activity_month
ORDER BY total_activities DESC
LIMIT 1;`

// BuildSQLGenerationPrompt composes the grounding prompt for one question.
// The output is deterministic for a given question: fixed schema, fixed rule
// set, fixed worked examples, and the verbatim question appended at the end.
// The caller is responsible for rejecting empty questions before this point.
func BuildSQLGenerationPrompt(question string) string {
	var prompt strings.Builder

	prompt.WriteString("## Database Schema\n")
	prompt.WriteString(SchemaDDL)
	prompt.WriteString("\n\n")

	prompt.WriteString(queryRules)
	prompt.WriteString("\n\n")

	prompt.WriteString(workedExamples)
	prompt.WriteString("\n\n")

	prompt.WriteString("Now, generate the SQL query based on the following user question:\n")
	prompt.WriteString("User Question: \"")
	prompt.WriteString(question)
	prompt.WriteString("\"\nSQL Query:\n")

	return prompt.String()
}

// BuildSQLGenerationSystemMessage returns the system message for the generator.
func BuildSQLGenerationSystemMessage() string {
	return `You are a PostgreSQL SQL expert using pgvector. Convert the user's question about their recorded physical activities into a single SQL statement.`
}
