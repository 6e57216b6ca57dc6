package database

// Schema creates the tables the pipelines read and write. Statements are
// idempotent so EnsureSchema can run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS tours (
    tour_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tour_members (
    tour_id TEXT NOT NULL REFERENCES tours(tour_id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'crew',
    phone TEXT,
    email TEXT,
    PRIMARY KEY (tour_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_tour_members_user ON tour_members(user_id);

CREATE TABLE IF NOT EXISTS change_events (
    id UUID PRIMARY KEY,
    tour_id TEXT NOT NULL REFERENCES tours(tour_id),
    author_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    action TEXT NOT NULL,
    summary TEXT NOT NULL,
    reason TEXT NOT NULL CHECK (char_length(reason) >= 10),
    affects_safety BOOLEAN NOT NULL DEFAULT FALSE,
    affects_time BOOLEAN NOT NULL DEFAULT FALSE,
    affects_money BOOLEAN NOT NULL DEFAULT FALSE,
    severity TEXT NOT NULL,
    associated_date DATE,
    payload JSONB,
    processed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_change_events_unprocessed
    ON change_events(tour_id, created_at) WHERE processed = FALSE;

CREATE TABLE IF NOT EXISTS recipient_preferences (
    tour_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    min_severity TEXT NOT NULL DEFAULT 'CRITICAL',
    safety_always BOOLEAN NOT NULL DEFAULT TRUE,
    time_always BOOLEAN NOT NULL DEFAULT TRUE,
    money_always BOOLEAN NOT NULL DEFAULT TRUE,
    day_window INTEGER NOT NULL DEFAULT 3,
    notify_schedule_changes BOOLEAN NOT NULL DEFAULT TRUE,
    notify_contact_changes BOOLEAN NOT NULL DEFAULT TRUE,
    notify_venue_changes BOOLEAN NOT NULL DEFAULT TRUE,
    notify_finance_changes BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tour_id, user_id)
);

CREATE TABLE IF NOT EXISTS tour_default_preferences (
    tour_id TEXT PRIMARY KEY REFERENCES tours(tour_id) ON DELETE CASCADE,
    min_severity TEXT NOT NULL DEFAULT 'CRITICAL',
    safety_always BOOLEAN NOT NULL DEFAULT TRUE,
    time_always BOOLEAN NOT NULL DEFAULT TRUE,
    money_always BOOLEAN NOT NULL DEFAULT TRUE,
    day_window INTEGER NOT NULL DEFAULT 3,
    notify_schedule_changes BOOLEAN NOT NULL DEFAULT TRUE,
    notify_contact_changes BOOLEAN NOT NULL DEFAULT TRUE,
    notify_venue_changes BOOLEAN NOT NULL DEFAULT TRUE,
    notify_finance_changes BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS schedule_events (
    event_id TEXT PRIMARY KEY,
    tour_id TEXT NOT NULL REFERENCES tours(tour_id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    load_in_at TIMESTAMPTZ,
    soundcheck_at TIMESTAMPTZ,
    doors_at TIMESTAMPTZ,
    show_at TIMESTAMPTZ,
    curfew_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS reminder_subscriptions (
    reminder_id UUID PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES schedule_events(event_id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    remind_type TEXT NOT NULL,
    lead_minutes INTEGER NOT NULL,
    phone TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (event_id, user_id)
);

CREATE TABLE IF NOT EXISTS scheduled_messages (
    message_id UUID PRIMARY KEY,
    user_id TEXT NOT NULL,
    phone TEXT NOT NULL,
    body TEXT NOT NULL CHECK (char_length(body) <= 1500),
    send_at TIMESTAMPTZ NOT NULL,
    sent BOOLEAN NOT NULL DEFAULT FALSE,
    sent_at TIMESTAMPTZ,
    is_self BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scheduled_messages_pending
    ON scheduled_messages(send_at) WHERE sent = FALSE;

CREATE TABLE IF NOT EXISTS delivery_log (
    id BIGSERIAL PRIMARY KEY,
    ref_id TEXT NOT NULL,
    recipient TEXT NOT NULL,
    kind TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (ref_id, recipient, kind)
);

CREATE TABLE IF NOT EXISTS messages (
    message_id UUID PRIMARY KEY,
    tour_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    change_id UUID,
    severity TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_messages_inbox ON messages(user_id, tour_id, created_at DESC);

CREATE TABLE IF NOT EXISTS outbound_messages (
    id BIGSERIAL PRIMARY KEY,
    ref_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    phone TEXT NOT NULL,
    body TEXT NOT NULL,
    sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
