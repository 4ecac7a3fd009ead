package vision

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/BaSui01/capflow/llm/capability"
	"github.com/BaSui01/capflow/types"
)

// imageMIME 返回图像的 MIME 类型，未声明时按内容嗅探.
func imageMIME(req *capability.ImageRequest) string {
	if m := strings.TrimSpace(strings.SplitN(req.MIME, ";", 2)[0]); m != "" {
		return m
	}
	return http.DetectContentType(req.Data)
}

// validate 检查请求至少带有图像数据或 URL，且数据确为图像.
func validate(provider string, req *capability.ImageRequest) error {
	if len(req.Data) == 0 && req.URL == "" {
		return types.NewProviderError(provider, types.ProviderErrInvalidRequest, "image input is required")
	}
	if len(req.Data) > 0 {
		if mime := imageMIME(req); !strings.HasPrefix(mime, "image/") {
			return types.NewProviderError(provider, types.ProviderErrInvalidRequest,
				fmt.Sprintf("unsupported image type %q", mime))
		}
	}
	return nil
}

// dataURL 将图像编码为 data URL；只有 URL 时原样返回.
func dataURL(req *capability.ImageRequest) string {
	if len(req.Data) == 0 {
		return req.URL
	}
	return fmt.Sprintf("data:%s;base64,%s", imageMIME(req), base64.StdEncoding.EncodeToString(req.Data))
}

func maxTokens(requested, fallback int) int {
	if requested > 0 {
		return requested
	}
	return fallback
}
