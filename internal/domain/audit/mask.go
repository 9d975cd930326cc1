package audit

import (
	"encoding/json"
	"net"
	"strings"
)

const maskedValue = "***"

var sensitiveKeys = []string{"password", "token", "secret", "email"}

// MaskIP keeps the first two IPv4 octets or IPv6 groups.
func MaskIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "N/A"
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip
	}
	if v4 := parsed.To4(); v4 != nil {
		parts := strings.Split(v4.String(), ".")
		return parts[0] + "." + parts[1] + ".*.*"
	}
	groups := strings.Split(ip, ":")
	if len(groups) < 2 {
		return ip
	}
	return groups[0] + ":" + groups[1] + ":*"
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, candidate := range sensitiveKeys {
		if strings.Contains(lower, candidate) {
			return true
		}
	}
	return false
}

// MaskSensitive replaces values of sensitive keys at any depth. Invalid JSON
// is returned unchanged.
func MaskSensitive(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw
	}
	masked, err := json.Marshal(maskValue(doc))
	if err != nil {
		return raw
	}
	return masked
}

func maskValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for key, value := range typed {
			if isSensitiveKey(key) {
				typed[key] = maskedValue
				continue
			}
			typed[key] = maskValue(value)
		}
		return typed
	case []any:
		for i := range typed {
			typed[i] = maskValue(typed[i])
		}
		return typed
	default:
		return v
	}
}

// Masked returns a copy safe for display to auditors.
func (e Entry) Masked() Entry {
	e.IPAddress = MaskIP(e.IPAddress)
	e.OldValues = MaskSensitive(e.OldValues)
	e.NewValues = MaskSensitive(e.NewValues)
	return e
}
