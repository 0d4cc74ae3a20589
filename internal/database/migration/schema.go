package migration

// Table statements run in order on every open. All are idempotent.
var tables = []Statement{
	{Name: "jobs", SQL: `
CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	location TEXT,
	url TEXT UNIQUE NOT NULL,
	source TEXT,
	posted_date TEXT,
	scraped_at TEXT,
	description_snippet TEXT,
	is_remote INTEGER DEFAULT 0,
	salary_range TEXT,
	status TEXT DEFAULT 'open',
	first_seen_at TEXT,
	last_seen_at TEXT,
	country TEXT,
	company_url TEXT
)`},
	{Name: "company_enrichment", SQL: `
CREATE TABLE IF NOT EXISTS company_enrichment (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company_name TEXT NOT NULL,
	funding_stage TEXT,
	total_raised TEXT,
	last_funded_date TEXT,
	employee_count TEXT,
	industries TEXT,
	description TEXT,
	domain TEXT
)`},
	{Name: "candidates", SQL: `
CREATE TABLE IF NOT EXISTS candidates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	name TEXT,
	role_types TEXT,
	location TEXT,
	remote_pref TEXT,
	status TEXT DEFAULT 'open',
	alert_freq TEXT DEFAULT 'weekly',
	verified INTEGER DEFAULT 0,
	verification_token TEXT,
	token_expires_at TEXT,
	created_at TEXT DEFAULT (datetime('now')),
	last_active_at TEXT
)`},
	{Name: "candidate_saved_jobs", SQL: `
CREATE TABLE IF NOT EXISTS candidate_saved_jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_id INTEGER NOT NULL,
	job_url TEXT NOT NULL,
	saved_at TEXT DEFAULT (datetime('now')),
	UNIQUE(candidate_id, job_url)
)`},
	{Name: "employers", SQL: `
CREATE TABLE IF NOT EXISTS employers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	company_name TEXT NOT NULL,
	created_at TEXT DEFAULT (datetime('now')),
	last_login_at TEXT
)`},
	{Name: "employer_sessions", SQL: `
CREATE TABLE IF NOT EXISTS employer_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	employer_id INTEGER NOT NULL,
	token TEXT UNIQUE NOT NULL,
	expires_at TEXT NOT NULL,
	created_at TEXT DEFAULT (datetime('now'))
)`},
	{Name: "employer_submissions", SQL: `
CREATE TABLE IF NOT EXISTS employer_submissions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	employer_id INTEGER NOT NULL,
	job_url TEXT NOT NULL,
	scraped_title TEXT,
	scraped_company TEXT,
	scraped_location TEXT,
	scraped_description TEXT,
	job_id INTEGER,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT DEFAULT (datetime('now')),
	reviewed_at TEXT
)`},
}

var indexes = []Statement{
	{Name: "idx_jobs_status", SQL: `CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`},
	{Name: "idx_jobs_first_seen", SQL: `CREATE INDEX IF NOT EXISTS idx_jobs_first_seen ON jobs(first_seen_at)`},
	{Name: "idx_saved_candidate", SQL: `CREATE INDEX IF NOT EXISTS idx_saved_candidate ON candidate_saved_jobs(candidate_id)`},
	{Name: "idx_submissions_status", SQL: `CREATE INDEX IF NOT EXISTS idx_submissions_status ON employer_submissions(status)`},
	{Name: "idx_employer_sessions_employer", SQL: `CREATE INDEX IF NOT EXISTS idx_employer_sessions_employer ON employer_sessions(employer_id)`},
}

// Additive columns. Imported scraper databases predate most of these, so
// they are re-checked after every open.
var columns = []Column{
	{Table: "jobs", Name: "featured", Decl: "INTEGER DEFAULT 0"},
	{Table: "jobs", Name: "verified", Decl: "INTEGER DEFAULT 0"},
	{Table: "jobs", Name: "salary_min", Decl: "INTEGER"},
	{Table: "jobs", Name: "salary_max", Decl: "INTEGER"},
	{Table: "jobs", Name: "salary_currency", Decl: "TEXT"},

	{Table: "candidates", Name: "linkedin_url", Decl: "TEXT"},
	{Table: "candidates", Name: "cv_filename", Decl: "TEXT"},
	{Table: "candidates", Name: "cv_path", Decl: "TEXT"},
	{Table: "candidates", Name: "surname", Decl: "TEXT"},
	{Table: "candidates", Name: "linkedin_verified", Decl: "INTEGER DEFAULT 0"},
	{Table: "candidates", Name: "avatar_url", Decl: "TEXT"},
	{Table: "candidates", Name: "current_role", Decl: "TEXT"},
	{Table: "candidates", Name: "current_company", Decl: "TEXT"},
	{Table: "candidates", Name: "years_experience", Decl: "TEXT"},
	{Table: "candidates", Name: "skills", Decl: "TEXT"},
	{Table: "candidates", Name: "open_to_work", Decl: "INTEGER DEFAULT 1"},
	{Table: "candidates", Name: "work_auth", Decl: "TEXT"},
	{Table: "candidates", Name: "notice_period", Decl: "TEXT"},
	{Table: "candidates", Name: "salary_min", Decl: "INTEGER"},
	{Table: "candidates", Name: "salary_currency", Decl: "TEXT"},

	{Table: "employer_sessions", Name: "kind", Decl: "TEXT NOT NULL DEFAULT 'session'"},
}
