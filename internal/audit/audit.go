// Package audit writes structured audit records. At command start it logs
// the resolved configuration with secrets reduced to presence or absence.
// Destructive journal operations are recorded with the acting user and
// request ID so erasures can be traced after the data is gone.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// secretEnvKeys lists environment variable names whose values must never be
// logged. Only presence ("set") or absence ("unset") is recorded.
var secretEnvKeys = map[string]bool{
	"OPENAI_API_KEY":       true,
	"AZURE_OPENAI_API_KEY": true,
	"GOOGLE_API_KEY":       true,
	"ARK_API_KEY":          true,
	"EMBEDDING_API_KEY":    true,
	"RERANKER_API_KEY":     true,
	"QDRANT_API_KEY":       true,
	"AUTH_JWT_SECRET":      true,
	"LANGFUSE_PUBLIC_KEY":  true,
	"LANGFUSE_SECRET_KEY":  true,
}

// LogCommandStart emits a structured audit log entry when a CLI command begins.
// It records the command name, config file source, and sanitised environment.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}

	for _, key := range auditKeys {
		attrs = append(attrs, slog.String(key, SanitiseKey(key, os.Getenv(key))))
	}

	log.LogAttrs(context.Background(), slog.LevelInfo, "audit: command start", attrs...)
}

// Action names a destructive operation recorded by [LogAction].
type Action string

const (
	// ActionDelete is the removal of a single entry.
	ActionDelete Action = "journal.delete"
	// ActionDeleteAccount is the erasure of every entry a user owns.
	ActionDeleteAccount Action = "journal.delete_account"
	// ActionRetentionSweep is the removal of expired entries.
	ActionRetentionSweep Action = "journal.retention_sweep"
)

// LogAction records a destructive operation. owner is empty for
// system-initiated actions such as retention sweeps.
func LogAction(ctx context.Context, log *slog.Logger, action Action, owner string, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("action", string(action)),
		slog.String("actor", actor(owner)),
	}
	log.LogAttrs(ctx, slog.LevelInfo, "audit: "+string(action), append(base, attrs...)...)
}

// auditKeys is the ordered list of env vars included in every audit log entry.
var auditKeys = []string{
	"MODEL_PROVIDER",
	"OLLAMA_HOST",
	"OLLAMA_MODEL",
	"OPENAI_API_KEY",
	"OPENAI_MODEL",
	"OPENAI_BASE_URL",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_OPENAI_DEPLOYMENT",
	"GOOGLE_API_KEY",
	"GEMINI_MODEL",
	"ARK_API_KEY",
	"ARK_MODEL",
	"EMBEDDING_PROVIDER",
	"EMBEDDING_MODEL",
	"EMBEDDING_DIMENSIONS",
	"EMBEDDING_API_KEY",
	"RERANKER_PROVIDER",
	"RERANKER_ENDPOINT",
	"RERANKER_API_KEY",
	"STORE_BACKEND",
	"SQLITE_PATH",
	"QDRANT_HOST",
	"QDRANT_PORT",
	"QDRANT_COLLECTION",
	"QDRANT_API_KEY",
	"AUTH_DISABLED",
	"AUTH_JWT_SECRET",
	"AUTH_JWT_PUBLIC_KEY_FILE",
	"AUTH_JWT_ISSUER",
	"RETENTION_ENABLED",
	"RETENTION_MAX_AGE",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"LANGFUSE_PUBLIC_KEY",
	"LANGFUSE_SECRET_KEY",
}

// SanitiseKey returns "set" or "unset" for known secret keys, or the actual
// value for non-secret keys. This is safe to use in log messages.
func SanitiseKey(key, value string) string {
	if secretEnvKeys[key] {
		return presence(value)
	}
	return valOrUnset(value)
}

// presence returns "set" if the value is non-empty, "unset" otherwise.
func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// actor returns owner, or "system" when empty.
func actor(owner string) string {
	if owner == "" {
		return "system"
	}
	return owner
}

// sanitiseConfigPath returns the config path or "none" if empty.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	// Redact home directory for privacy in logs.
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
