package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/llm"
	"github.com/Squareczm/DocumentationTool/internal/naming"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SMARTFILEORG"

// Settings is the main configuration file.
type Settings struct {
	LLM            LLMSettings      `mapstructure:"llm"`
	KnowledgeBase  KBSettings       `mapstructure:"knowledge_base"`
	FileProcessing FileSettings     `mapstructure:"file_processing"`
	DateExtraction DateSettings     `mapstructure:"date_extraction"`
	Defaults       DefaultsSettings `mapstructure:"defaults"`
	Output         OutputSettings   `mapstructure:"output"`
	Logging        LoggingSettings  `mapstructure:"logging"`
	Metrics        MetricsSettings  `mapstructure:"metrics"`
}

// LLMSettings configures the semantic labeler. An empty provider disables it.
type LLMSettings struct {
	Provider    string        `mapstructure:"provider" validate:"omitempty,oneof=openai anthropic gemini"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	Concurrency int           `mapstructure:"concurrency" validate:"gte=1,lte=32"`
	RateLimit   int           `mapstructure:"rate_limit" validate:"gte=0"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=0"`
}

// KBSettings locates the knowledge base and its rule files.
type KBSettings struct {
	RootPath       string `mapstructure:"root_path" validate:"required"`
	RulesFile      string `mapstructure:"rules_file"`
	TemplatesFile  string `mapstructure:"templates_file"`
	LedgerPath     string `mapstructure:"ledger_path"`
	RefreshPolicy  string `mapstructure:"refresh_policy" validate:"oneof=startup on_change"`
	MaxFolderDepth int    `mapstructure:"max_folder_depth" validate:"gte=1,lte=10"`
	StructureDepth int    `mapstructure:"structure_depth" validate:"gte=0,lte=10"`
}

// FileSettings controls the inbox and the generated filenames.
type FileSettings struct {
	Inbox               string        `mapstructure:"inbox"`
	ProcessedDir        string        `mapstructure:"processed_dir"`
	VersionFormat       string        `mapstructure:"version_format" validate:"oneof=simple semantic"`
	InitialVersion      string        `mapstructure:"initial_version" validate:"required"`
	DateFormat          string        `mapstructure:"date_format" validate:"required"`
	SupportedExtensions []string      `mapstructure:"supported_extensions"`
	Include             []string      `mapstructure:"include"`
	Exclude             []string      `mapstructure:"exclude"`
	MaxFilenameLength   int           `mapstructure:"max_filename_length" validate:"gte=32,lte=255"`
	MinorCeiling        int           `mapstructure:"minor_ceiling" validate:"gte=0"`
	MaxContentChars     int           `mapstructure:"max_content_chars" validate:"gte=0"`
	Workers             int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	Debounce            time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// DateSettings orders the candidate dates.
type DateSettings struct {
	Priority []string `mapstructure:"priority" validate:"dive,oneof=content_date creation_date modification_date current_date"`
}

// DefaultsSettings holds fallback values.
type DefaultsSettings struct {
	FallbackSubject string `mapstructure:"fallback_subject" validate:"required"`
}

// OutputSettings controls CLI rendering.
type OutputSettings struct {
	Verbose       bool `mapstructure:"verbose"`
	ColoredOutput bool `mapstructure:"colored_output"`
}

// LoggingSettings configures slog.
type LoggingSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console text json"`
}

// MetricsSettings configures the Prometheus endpoint. An empty address disables it.
type MetricsSettings struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.cache_ttl", "15m")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.concurrency", 2)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1000)

	v.SetDefault("knowledge_base.root_path", "./knowledge_base")
	v.SetDefault("knowledge_base.rules_file", "config/classification_rules.yaml")
	v.SetDefault("knowledge_base.templates_file", "config/folder_templates.yaml")
	v.SetDefault("knowledge_base.ledger_path", "")
	v.SetDefault("knowledge_base.refresh_policy", "startup")
	v.SetDefault("knowledge_base.max_folder_depth", 3)
	v.SetDefault("knowledge_base.structure_depth", 3)

	v.SetDefault("file_processing.inbox", "./inbox")
	v.SetDefault("file_processing.processed_dir", "./processed")
	v.SetDefault("file_processing.version_format", "simple")
	v.SetDefault("file_processing.initial_version", "v1.0")
	v.SetDefault("file_processing.date_format", "%Y%m%d")
	v.SetDefault("file_processing.supported_extensions", []string{".txt", ".md", ".html", ".htm", ".docx", ".xlsx", ".pdf"})
	v.SetDefault("file_processing.include", []string{})
	v.SetDefault("file_processing.exclude", []string{})
	v.SetDefault("file_processing.max_filename_length", 200)
	v.SetDefault("file_processing.minor_ceiling", 0)
	v.SetDefault("file_processing.max_content_chars", 100_000)
	v.SetDefault("file_processing.workers", 4)
	v.SetDefault("file_processing.debounce", "500ms")

	v.SetDefault("date_extraction.priority", []string{"content_date", "creation_date", "modification_date", "current_date"})
	v.SetDefault("defaults.fallback_subject", "未分类文档")
	v.SetDefault("output.verbose", false)
	v.SetDefault("output.colored_output", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("metrics.addr", "")
}

// BindEnv enables SMARTFILEORG_* overrides for every key, plus the two
// short names kept for compatibility.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY"); err != nil {
		return err
	}
	return v.BindEnv("knowledge_base.root_path", EnvPrefix+"_KNOWLEDGE_BASE")
}

// Load decodes and validates the settings held by v. Paths are expanded.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	s.KnowledgeBase.RootPath = ExpandPath(s.KnowledgeBase.RootPath)
	s.KnowledgeBase.RulesFile = ExpandPath(s.KnowledgeBase.RulesFile)
	s.KnowledgeBase.TemplatesFile = ExpandPath(s.KnowledgeBase.TemplatesFile)
	s.KnowledgeBase.LedgerPath = ExpandPath(s.KnowledgeBase.LedgerPath)
	if s.KnowledgeBase.LedgerPath == "" && s.KnowledgeBase.RootPath != "" {
		s.KnowledgeBase.LedgerPath = filepath.Join(s.KnowledgeBase.RootPath, ".filer", "ledger.db")
	}
	s.FileProcessing.Inbox = ExpandPath(s.FileProcessing.Inbox)
	s.FileProcessing.ProcessedDir = ExpandPath(s.FileProcessing.ProcessedDir)
	s.FileProcessing.SupportedExtensions = normalizeExtensions(s.FileProcessing.SupportedExtensions)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Validate checks struct constraints and the cross-field rules. The first
// failure is reported as a ConfigError naming its key.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return common.NewConfigError(fieldKey(fe.Namespace()), "failed %q validation (value %v)", fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	if _, err := s.Naming(); err != nil {
		return err
	}
	if s.LLM.Provider != "" && s.LLM.APIKey == "" {
		return common.NewConfigError("llm.api_key", "required when llm.provider is %q", s.LLM.Provider)
	}
	return nil
}

// Naming converts the file processing settings into a naming configuration.
func (s *Settings) Naming() (naming.Config, error) {
	format, err := naming.ParseFormat(s.FileProcessing.VersionFormat)
	if err != nil {
		return naming.Config{}, common.NewConfigError("file_processing.version_format", "%v", err)
	}
	initial, err := naming.ParseVersion(s.FileProcessing.InitialVersion)
	if err != nil {
		return naming.Config{}, common.NewConfigError("file_processing.initial_version", "%v", err)
	}
	priority, err := naming.ParsePriority(s.DateExtraction.Priority)
	if err != nil {
		return naming.Config{}, err
	}

	cfg := naming.Config{
		Format:            format,
		Initial:           initial,
		DateLayout:        naming.Layout(s.FileProcessing.DateFormat),
		DatePriority:      priority,
		MinorCeiling:      s.FileProcessing.MinorCeiling,
		MaxFilenameLength: s.FileProcessing.MaxFilenameLength,
	}
	if err := cfg.Validate(); err != nil {
		return naming.Config{}, err
	}
	return cfg, nil
}

// LabelerEnabled reports whether a semantic labeler is configured.
func (s *Settings) LabelerEnabled() bool {
	return s.LLM.Provider != "" && s.LLM.APIKey != ""
}

// Labeler converts the llm settings into a labeler configuration.
func (s *Settings) Labeler() llm.Config {
	return llm.Config{
		Provider:    s.LLM.Provider,
		APIKey:      s.LLM.APIKey,
		BaseURL:     s.LLM.BaseURL,
		Model:       s.LLM.Model,
		Timeout:     s.LLM.Timeout,
		MaxRetries:  s.LLM.MaxRetries,
		RetryDelay:  time.Second,
		CacheTTL:    s.LLM.CacheTTL,
		RateLimit:   s.LLM.RateLimit,
		Temperature: s.LLM.Temperature,
		MaxTokens:   s.LLM.MaxTokens,
	}
}

// fieldKey turns a validator namespace such as Settings.llm.provider into
// the dotted config key.
func fieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
