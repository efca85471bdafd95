package sqlite

const schema = `
-- Cached relay directory
CREATE TABLE IF NOT EXISTS relays (
    hostname TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT 1,

    -- Location
    country_name TEXT,
    country_code TEXT,
    city_name TEXT,
    city_code TEXT,

    -- Ownership
    provider TEXT,
    owned BOOLEAN DEFAULT 0,

    -- Connection details
    ipv4_addr_in TEXT,
    ipv6_addr_in TEXT,

    -- Capabilities
    load INTEGER DEFAULT 0,
    network_port_speed INTEGER DEFAULT 0,
    stboot BOOLEAN DEFAULT 0,
    multihop_port INTEGER DEFAULT 0,
    socks_name TEXT,

    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Probe measurements
CREATE TABLE IF NOT EXISTS probe_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hostname TEXT NOT NULL,
    latency_ms REAL,
    success BOOLEAN NOT NULL,
    error_message TEXT,
    samples INTEGER DEFAULT 3,
    probed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Application settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_relays_type ON relays(type);
CREATE INDEX IF NOT EXISTS idx_relays_active ON relays(active);
CREATE INDEX IF NOT EXISTS idx_relays_country_code ON relays(country_code);
CREATE INDEX IF NOT EXISTS idx_probe_results_hostname ON probe_results(hostname);
CREATE INDEX IF NOT EXISTS idx_probe_results_probed_at ON probe_results(probed_at);

-- Triggers for updated_at
CREATE TRIGGER IF NOT EXISTS update_relays_timestamp AFTER UPDATE ON relays
BEGIN
    UPDATE relays SET updated_at = CURRENT_TIMESTAMP WHERE hostname = NEW.hostname;
END;

CREATE TRIGGER IF NOT EXISTS update_settings_timestamp AFTER UPDATE ON settings
BEGIN
    UPDATE settings SET updated_at = CURRENT_TIMESTAMP WHERE key = NEW.key;
END;
`

const defaultData = `
-- Default probe settings
INSERT OR IGNORE INTO settings (key, value) VALUES ('probe_workers', '10');
INSERT OR IGNORE INTO settings (key, value) VALUES ('probe_timeout_ms', '2000');
INSERT OR IGNORE INTO settings (key, value) VALUES ('probe_samples', '3');
`

// runMigrations applies the schema and seeds default settings.
func runMigrations(d *DB) error {
	if _, err := d.db.Exec(schema); err != nil {
		return err
	}
	if _, err := d.db.Exec(defaultData); err != nil {
		return err
	}
	return nil
}
