package store

// versionTable tracks which migrations have been applied
const versionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// migrations are applied in order; entry i is schema version i+1.
// Append new steps, never edit applied ones.
var migrations = []string{schemaV1}

// currentSchemaVersion is the version a fully migrated database reports
var currentSchemaVersion = len(migrations)

// Schema v1 - the five record tables.
// Column names follow the records persisted by earlier releases of the app,
// so existing databases stay readable.
const schemaV1 = `
-- OCR captures
CREATE TABLE IF NOT EXISTS scans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  text TEXT NOT NULL,
  imageUri TEXT NOT NULL,
  timestamp TEXT NOT NULL
);

-- Saved translations
CREATE TABLE IF NOT EXISTS translations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sourceText TEXT NOT NULL,
  targetText TEXT NOT NULL,
  sourceLang TEXT NOT NULL,
  targetLang TEXT NOT NULL,
  timestamp TEXT NOT NULL
);

-- Saved speech transcriptions
CREATE TABLE IF NOT EXISTS voice_notes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  transcription TEXT NOT NULL,
  timestamp TEXT NOT NULL
);

-- User profile, keyed by the identity provider's user id
CREATE TABLE IF NOT EXISTS user_profile (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT,
  phoneNumber TEXT,
  selectedVoice TEXT,
  notificationsEnabled INTEGER NOT NULL DEFAULT 1,
  voiceAssistantEnabled INTEGER NOT NULL DEFAULT 1,
  appLockEnabled INTEGER NOT NULL DEFAULT 0,
  updatedAt TEXT NOT NULL
);

-- Saved routes (fetched or recorded)
CREATE TABLE IF NOT EXISTS routes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  startLat REAL NOT NULL,
  startLng REAL NOT NULL,
  endLat REAL NOT NULL,
  endLng REAL NOT NULL,
  polyline TEXT NOT NULL,
  steps TEXT,
  distance TEXT,
  duration TEXT,
  timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);
CREATE INDEX IF NOT EXISTS idx_translations_timestamp ON translations(timestamp);
CREATE INDEX IF NOT EXISTS idx_voice_notes_timestamp ON voice_notes(timestamp);
CREATE INDEX IF NOT EXISTS idx_routes_timestamp ON routes(timestamp);
`
