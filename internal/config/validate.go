package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Error() string {
	return strings.Join(v.Errors, "; ")
}

// NormalizeAndValidate trims and dedupes list fields, applies defaults and
// returns a normalized copy plus everything wrong with it. Any Errors entry
// is fatal before a run starts.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Filters.IncludeKeywords = trimList(out.Filters.IncludeKeywords)
	out.Filters.ExcludeKeywords = trimList(out.Filters.ExcludeKeywords)
	out.Filters.Locations = trimList(out.Filters.Locations)

	if out.StalenessDays < 0 {
		res.addErr("staleness_days must be >= 0, got %d", out.StalenessDays)
	}
	if out.SalaryMin < 0 {
		res.addErr("salary_min must be >= 0, got %v", out.SalaryMin)
	}

	if len(out.Sources) == 0 {
		res.addErr("no sources configured")
	}

	seenNames := map[string]bool{}
	for i, s := range out.Sources {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			res.addErr("sources[%d]: name is required", i)
			continue
		}
		if seenNames[name] {
			res.addErr("sources[%d]: duplicate source name %q", i, name)
		}
		seenNames[name] = true

		switch strings.TrimSpace(s.Type) {
		case "rss":
			if strings.TrimSpace(s.URL) == "" {
				res.addErr("sources[%d] (%s): url is required for type rss", i, name)
			}
		case "remotive":
			// category is optional
		case "mailbox":
			if strings.TrimSpace(s.IMAP.Host) == "" {
				res.addErr("sources[%d] (%s): imap.host is required for type mailbox", i, name)
			}
			if s.IMAP.Port == 0 {
				res.addErr("sources[%d] (%s): imap.port is required for type mailbox", i, name)
			}
			if strings.TrimSpace(s.IMAP.Username) == "" {
				res.addErr("sources[%d] (%s): imap.username is required for type mailbox", i, name)
			}
			if strings.TrimSpace(s.IMAP.Mailbox) == "" {
				out.Sources[i].IMAP.Mailbox = "INBOX"
			}
			if len(s.IMAP.SubjectAny) == 0 {
				res.addWarn("sources[%d] (%s): imap.subject_any is empty; every unseen mail will be scanned", i, name)
			}
		case "":
			res.addErr("sources[%d] (%s): type is required", i, name)
		default:
			res.addErr("sources[%d] (%s): unknown source type %q", i, name, s.Type)
		}
	}

	if len(out.Filters.IncludeKeywords) == 0 {
		res.addWarn("filters.include_keywords is empty; every posting will match the keyword rule")
	}

	// conflicting keywords filter everything out
	excSet := map[string]bool{}
	for _, k := range out.Filters.ExcludeKeywords {
		excSet[strings.ToLower(k)] = true
	}
	for _, k := range out.Filters.IncludeKeywords {
		if excSet[strings.ToLower(k)] {
			res.addWarn("keyword appears in both include and exclude: %q", k)
		}
	}

	if out.Notify.Email.Enabled {
		if strings.TrimSpace(out.Notify.Email.SMTPHost) == "" {
			res.addErr("notify.email.smtp_host is required when notify.email.enabled=true")
		}
		if out.Notify.Email.SMTPPort == 0 {
			res.addErr("notify.email.smtp_port is required when notify.email.enabled=true")
		}
		if strings.TrimSpace(out.Notify.Email.From) == "" {
			res.addErr("notify.email.from is required when notify.email.enabled=true")
		}
		if len(out.Notify.Email.To) == 0 {
			res.addErr("notify.email.to is required when notify.email.enabled=true")
		}
	}

	if out.App.DataDir == "" {
		out.App.DataDir = "."
	}
	if out.App.OutDir == "" {
		out.App.OutDir = "outputs"
	}
	if out.Watch.Cron == "" {
		out.Watch.Cron = "0 8 * * *"
	}

	return out, res
}
