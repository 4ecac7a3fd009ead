package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/capflow/llm/capability"
)

// =============================================================================
// ▶️ run 命令
// =============================================================================

// stringSlice 可重复的字符串 flag
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// runOptions run 命令参数
type runOptions struct {
	configPath  string
	capability  capability.Capability
	prompt      string
	language    string
	timeout     time.Duration
	attachments []capability.Attachment
}

// parseRunArgs 解析 run 命令参数，位置参数为本地文件或 http(s) URL
func parseRunArgs(args []string) (*runOptions, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := &runOptions{}
	var (
		capName string
		texts   stringSlice
	)
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVar(&capName, "capability", "", "audio, vision or embedding")
	fs.StringVar(&opts.prompt, "prompt", "", "Override the configured prompt")
	fs.StringVar(&opts.language, "language", "", "Override the configured language hint")
	fs.Var(&texts, "text", "Text input, repeatable")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall run timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.capability = capability.Capability(strings.ToLower(strings.TrimSpace(capName)))
	if !opts.capability.Valid() {
		return nil, fmt.Errorf("--capability must be one of audio, vision, embedding (got %q)", capName)
	}
	if opts.timeout <= 0 {
		return nil, errors.New("--timeout must be positive")
	}

	for _, arg := range fs.Args() {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			opts.attachments = append(opts.attachments, capability.Attachment{URL: arg})
			continue
		}
		opts.attachments = append(opts.attachments, capability.Attachment{Path: arg})
	}
	for _, t := range texts {
		opts.attachments = append(opts.attachments, capability.Attachment{Text: t})
	}
	return opts, nil
}

// runOnce 执行一次能力运行并将结果以 JSON 写入 out。
// 返回的退出码：success 为 0，其余结果为 1
func runOnce(args []string, out io.Writer) (int, error) {
	opts, err := parseRunArgs(args)
	if err != nil {
		return 0, err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return 0, err
	}

	// 结果写 stdout，日志改写 stderr
	cfg.Log.OutputPaths = []string{"stderr"}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	comps, err := buildComponents(cfg, nil, logger)
	if err != nil {
		return 0, fmt.Errorf("build components: %w", err)
	}
	defer comps.Close(context.Background())

	runCfg := capability.MergeConfig(opts.capability, cfg.Tools.Media)
	if p := strings.TrimSpace(opts.prompt); p != "" {
		runCfg.Prompt = p
	}
	if lang := strings.TrimSpace(opts.language); lang != "" {
		runCfg.Language = lang
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	res := comps.runner.Run(ctx, opts.capability, runCfg, opts.attachments)
	logger.Debug("capability run finished",
		zap.String("run_id", res.Decision.RunID.String()),
		zap.String("outcome", string(res.Decision.Outcome)),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return 0, fmt.Errorf("write result: %w", err)
	}

	if res.Decision.Outcome != capability.OutcomeSuccess {
		return 1, nil
	}
	return 0, nil
}
