package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/capflow/api"
	"github.com/BaSui01/capflow/config"
	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/types"
)

// =============================================================================
// 🎛️ 能力运行 Handler
// =============================================================================

// CapabilityHandler 能力运行处理器
type CapabilityHandler struct {
	runner *capability.Runner
	media  config.MediaToolsConfig
	logger *zap.Logger
}

// NewCapabilityHandler 创建能力运行处理器，media 为 tools.media 配置
func NewCapabilityHandler(runner *capability.Runner, media config.MediaToolsConfig, logger *zap.Logger) *CapabilityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapabilityHandler{
		runner: runner,
		media:  media,
		logger: logger.With(zap.String("component", "capability_handler")),
	}
}

// HandleRun 处理能力运行请求
// @Summary 运行能力
// @Description 对附件执行 audio / vision / embedding，返回输出与决策记录
// @Tags 能力
// @Accept json
// @Produce json
// @Param capability path string true "能力名称" Enums(audio, vision, embedding)
// @Param request body api.RunRequest true "运行请求"
// @Success 200 {object} Response{data=capability.RunResult} "运行结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 404 {object} Response "未知能力"
// @Security ApiKeyAuth
// @Router /api/v1/capabilities/{capability}/run [post]
func (h *CapabilityHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	c := capability.Capability(strings.ToLower(r.PathValue("capability")))
	if !c.Valid() {
		WriteError(w, types.NewError(types.ErrNotFound, "unknown capability: "+r.PathValue("capability")), h.logger)
		return
	}

	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.RunRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	attachments, err := req.ToAttachments()
	if err != nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, err.Error()), h.logger)
		return
	}

	cfg := capability.MergeConfig(c, h.media)
	if p := strings.TrimSpace(req.Prompt); p != "" {
		cfg.Prompt = p
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		cfg.Language = lang
	}

	res := h.runner.Run(r.Context(), c, cfg, attachments)

	h.logger.Debug("capability run served",
		zap.String("capability", string(c)),
		zap.String("run_id", res.Decision.RunID.String()),
		zap.String("outcome", string(res.Decision.Outcome)),
		zap.Int("attachments", len(attachments)),
	)

	WriteSuccess(w, res)
}

// HandleList 列出能力及当前可用的 Provider
// @Summary 能力列表
// @Tags 能力
// @Produce json
// @Success 200 {object} Response "能力与 Provider"
// @Security ApiKeyAuth
// @Router /api/v1/capabilities [get]
func (h *CapabilityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	type capabilityInfo struct {
		Name      capability.Capability `json:"name"`
		Enabled   capability.Toggle     `json:"enabled"`
		Providers []string              `json:"providers"`
	}

	reg := h.runner.Registry()
	out := make([]capabilityInfo, 0, len(capability.All()))
	for _, c := range capability.All() {
		providers := reg.ProvidersFor(c)
		if providers == nil {
			providers = []string{}
		}
		out = append(out, capabilityInfo{
			Name:      c,
			Enabled:   capability.MergeConfig(c, h.media).Enabled,
			Providers: providers,
		})
	}
	WriteSuccess(w, out)
}
