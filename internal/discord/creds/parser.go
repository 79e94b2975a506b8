package creds

import (
	"regexp"
	"strings"

	"github.com/stackbundle/partnerhub/internal/discord"
)

// Credentials are the latest shared login posted to the distribution
// channel.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var labelRe = regexp.MustCompile(`(?i)^[*_#\s>]*(username|password)\b`)

// Parse extracts credentials from a message following the channel
// convention: "Username" and "Password" labels each followed by a
// fenced code block holding the value. Embed fields using the same
// labels are honored too.
func Parse(msg discord.Message) (Credentials, bool) {
	creds := fromText(msg.Content)

	for _, embed := range msg.Embeds {
		blob := embed.Title + "\n" + embed.Description
		for _, field := range embed.Fields {
			blob += "\n" + field.Name + "\n" + field.Value
		}
		fromEmbed := fromText(blob)
		if creds.Username == "" {
			creds.Username = fromEmbed.Username
		}
		if creds.Password == "" {
			creds.Password = fromEmbed.Password
		}
	}

	return creds, creds.Username != "" && creds.Password != ""
}

// fromText walks lines tracking which label was last seen and which
// fenced block we are inside. The first non-empty line of a block is
// taken as the labeled value.
func fromText(text string) Credentials {
	var creds Credentials

	label := ""
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			// Single-line form: ```value```
			if len(trimmed) > 6 && strings.HasSuffix(trimmed, "```") {
				if value := strings.Trim(trimmed, "`"); value != "" && label != "" {
					assign(&creds, label, value)
					label = ""
				}
				continue
			}
			inFence = !inFence
			continue
		}

		if inFence {
			if trimmed != "" && label != "" {
				assign(&creds, label, trimmed)
				label = ""
			}
			continue
		}

		if m := labelRe.FindStringSubmatch(trimmed); m != nil {
			label = strings.ToLower(m[1])
			// Inline form: "Username: value" without a code block.
			if i := strings.IndexByte(trimmed, ':'); i >= 0 {
				if value := strings.Trim(strings.TrimSpace(trimmed[i+1:]), "`"); value != "" {
					assign(&creds, label, value)
					label = ""
				}
			}
		}
	}
	return creds
}

func assign(creds *Credentials, label, value string) {
	switch label {
	case "username":
		if creds.Username == "" {
			creds.Username = value
		}
	case "password":
		if creds.Password == "" {
			creds.Password = value
		}
	}
}
