package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes one external source. Type selects the adapter
// variant; the registry rejects unknown types at load time.
type SourceConfig struct {
	Type     string `yaml:"type"` // rss | remotive | mailbox
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`      // rss: feed url
	Category string `yaml:"category"` // remotive: optional category filter

	IMAP IMAPConfig `yaml:"imap"` // mailbox only
}

type IMAPConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Username       string   `yaml:"username"`
	Mailbox        string   `yaml:"mailbox"`
	SubjectAny     []string `yaml:"subject_any"`
	KeyringAccount string   `yaml:"keyring_account"`
}

type FilterConfig struct {
	IncludeKeywords []string `yaml:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	Locations       []string `yaml:"locations"`
}

type EmailNotify struct {
	Enabled        bool     `yaml:"enabled"`
	SMTPHost       string   `yaml:"smtp_host"`
	SMTPPort       int      `yaml:"smtp_port"`
	Username       string   `yaml:"username"`
	From           string   `yaml:"from"`
	To             []string `yaml:"to"`
	KeyringAccount string   `yaml:"keyring_account"`
}

type NotifyConfig struct {
	SlackWebhook string      `yaml:"slack_webhook"`
	Email        EmailNotify `yaml:"email"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
		OutDir  string `yaml:"out_dir"`
	} `yaml:"app"`

	Sources []SourceConfig `yaml:"sources"`

	Filters       FilterConfig `yaml:"filters"`
	StalenessDays int          `yaml:"staleness_days"`
	SalaryMin     float64      `yaml:"salary_min"`

	Notify NotifyConfig `yaml:"notify"`

	Watch struct {
		Cron string `yaml:"cron"`
	} `yaml:"watch"`
}

func Load(path string) (Config, error) {
	// defaults go in before unmarshalling so an explicit `staleness_days: 0`
	// survives and disables the staleness rule
	cfg := Config{StalenessDays: 10}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
