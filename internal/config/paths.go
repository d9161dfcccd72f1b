package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDirName = ".notetaker"

// DataDir returns the base data directory for notetaker. NOTETAKER_HOME
// overrides the default of ~/.notetaker.
func DataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(envPrefix + "HOME")); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

func dataPath(elem ...string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dataDir}, elem...)...), nil
}

// TokenPath returns the path to the daemon bearer token file.
func TokenPath() (string, error) {
	return dataPath("token")
}

// CoreConfigPath returns the path to the daemon/CLI configuration file.
func CoreConfigPath() (string, error) {
	return dataPath("config.toml")
}

// UIConfigPath returns the path to the terminal UI configuration file.
func UIConfigPath() (string, error) {
	return dataPath("ui.toml")
}

// EnvPath returns the path to the optional dotenv file in the data dir.
func EnvPath() (string, error) {
	return dataPath(".env")
}

// NotesPath returns the path to the notes file of the file backend.
func NotesPath() (string, error) {
	return dataPath("notes.json")
}

// AttachmentsPath returns the path to the attachments file of the file backend.
func AttachmentsPath() (string, error) {
	return dataPath("attachments.json")
}

// DBPath returns the path to the embedded bbolt database.
func DBPath() (string, error) {
	return dataPath("notetaker.db")
}

// SQLitePath returns the default path of the sqlite database.
func SQLitePath() (string, error) {
	return dataPath("notetaker.sqlite")
}

// BlobDir returns the directory holding uploaded file content.
func BlobDir() (string, error) {
	return dataPath("files")
}

// UILogPath returns the path to the terminal UI log file.
func UILogPath() (string, error) {
	return dataPath("ui.log")
}

// DaemonLogPath returns the path to the background daemon log file.
func DaemonLogPath() (string, error) {
	return dataPath("daemon.log")
}
