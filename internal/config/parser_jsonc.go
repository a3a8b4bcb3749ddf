package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Transport          *string `json:"transport"`
	Port               *int    `json:"port"`
	SocketDir          *string `json:"socket_dir"`
	TmpDir             *string `json:"tmp_dir"`
	IOTimeoutMS        *int    `json:"io_timeout_ms"`
	ConnectTimeoutMS   *int    `json:"connect_timeout_ms"`
	MaxFrameBytes      *int    `json:"max_frame_bytes"`
	StrictProtocol     *bool   `json:"strict_protocol"`
	ProjectSuffix      *string `json:"project_suffix"`
	AllowProjectSwitch *bool   `json:"allow_project_switch"`
	PresentWindow      *bool   `json:"present_window"`
	PresentCmd         *string `json:"present_cmd"`
	LogLevel           *string `json:"log_level"`

	Indicator *jsoncIndicator `json:"indicator"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Transport != nil {
		cfg.Transport = strings.ToLower(strings.TrimSpace(*payload.Transport))
	}
	if payload.Port != nil {
		cfg.Port = *payload.Port
	}
	if payload.SocketDir != nil {
		cfg.SocketDir = strings.TrimSpace(*payload.SocketDir)
	}
	if payload.TmpDir != nil {
		cfg.TmpDir = strings.TrimSpace(*payload.TmpDir)
	}
	if payload.IOTimeoutMS != nil {
		cfg.IOTimeoutMS = *payload.IOTimeoutMS
	}
	if payload.ConnectTimeoutMS != nil {
		cfg.ConnectTimeoutMS = *payload.ConnectTimeoutMS
	}
	if payload.MaxFrameBytes != nil {
		cfg.MaxFrameBytes = *payload.MaxFrameBytes
	}
	if payload.StrictProtocol != nil {
		cfg.StrictProtocol = *payload.StrictProtocol
	}
	if payload.ProjectSuffix != nil {
		cfg.ProjectSuffix = strings.TrimSpace(*payload.ProjectSuffix)
	}
	if payload.AllowProjectSwitch != nil {
		cfg.AllowProjectSwitch = *payload.AllowProjectSwitch
	}
	if payload.PresentWindow != nil {
		cfg.PresentWindow = *payload.PresentWindow
	}
	if payload.PresentCmd != nil {
		raw := *payload.PresentCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid present_cmd: %w", err)
		}
		cfg.PresentCmd = CommandConfig{Raw: raw, Argv: argv}
	}
	if payload.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*payload.LogLevel))
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.Backend != nil {
			cfg.Indicator.Backend = strings.TrimSpace(*payload.Indicator.Backend)
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
