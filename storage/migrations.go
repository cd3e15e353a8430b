package storage

var pgMigration = []string{
	`CREATE TYPE video_status AS ENUM ('pending', 'processing', 'completed', 'failed')`,
	`CREATE TABLE video (
id uuid PRIMARY KEY,
user_id VARCHAR(255) NOT NULL,
youtube_url VARCHAR(255) NOT NULL,
youtube_id VARCHAR(11) NOT NULL,
title VARCHAR(255) NOT NULL DEFAULT '',
description TEXT NOT NULL DEFAULT '',
thumbnail_url VARCHAR(255) NOT NULL DEFAULT '',
duration VARCHAR(255) NOT NULL DEFAULT '',
status video_status NOT NULL,
created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX video_user_id_idx ON video (user_id)`,
	`CREATE TABLE transcript (
video_id uuid PRIMARY KEY REFERENCES video(id) ON DELETE CASCADE,
user_id VARCHAR(255) NOT NULL,
content TEXT NOT NULL,
language VARCHAR(35) NOT NULL DEFAULT 'en',
created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE analysis (
video_id uuid PRIMARY KEY REFERENCES video(id) ON DELETE CASCADE,
summary TEXT NOT NULL,
key_points TEXT[] NOT NULL,
sentiment VARCHAR(255) NOT NULL,
content_rating VARCHAR(255) NOT NULL DEFAULT '',
suggested_tags TEXT[] NOT NULL DEFAULT '{}',
created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX video_status_idx ON video (status)`,
}
