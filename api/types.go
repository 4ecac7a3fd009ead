package api

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/BaSui01/capflow/llm/capability"
)

// =============================================================================
// 能力运行类型
// =============================================================================

// RunRequest 能力运行请求
// @Description 单次能力运行请求结构
type RunRequest struct {
	// 待处理的附件，按数组位置编号
	Attachments []AttachmentInput `json:"attachments"`
	// 覆盖配置中的提示词
	Prompt string `json:"prompt,omitempty" example:"Describe the image."`
	// 覆盖配置中的语言提示（音频）
	Language string `json:"language,omitempty" example:"en"`
}

// AttachmentInput 请求中的单个附件
// @Description 附件：data（base64）、url、text 三选一
type AttachmentInput struct {
	// MIME 类型，为空时按内容嗅探
	MIME string `json:"mime,omitempty" example:"image/png"`
	// 文件名
	FileName string `json:"file_name,omitempty" example:"photo.png"`
	// base64 编码的内容
	Data string `json:"data,omitempty"`
	// 远程地址
	URL string `json:"url,omitempty" example:"https://example.com/cat.jpg"`
	// 文本输入（embedding）
	Text string `json:"text,omitempty"`
}

// ToAttachment 将请求附件转换为 capability.Attachment。
// 本地路径不允许通过 HTTP 传入。
func (a AttachmentInput) ToAttachment() (capability.Attachment, error) {
	att := capability.Attachment{
		MIME:     strings.TrimSpace(a.MIME),
		FileName: a.FileName,
		URL:      strings.TrimSpace(a.URL),
		Text:     a.Text,
	}

	set := 0
	for _, v := range []string{a.Data, att.URL, a.Text} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return capability.Attachment{}, fmt.Errorf("exactly one of data, url or text must be set")
	}

	if a.Data != "" {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return capability.Attachment{}, fmt.Errorf("data is not valid base64: %w", err)
		}
		att.Data = data
	}
	if att.URL != "" && !strings.HasPrefix(att.URL, "http://") && !strings.HasPrefix(att.URL, "https://") {
		return capability.Attachment{}, fmt.Errorf("url must use http or https")
	}
	return att, nil
}

// ToAttachments 转换全部附件，错误信息带上附件序号
func (r RunRequest) ToAttachments() ([]capability.Attachment, error) {
	out := make([]capability.Attachment, 0, len(r.Attachments))
	for i, in := range r.Attachments {
		att, err := in.ToAttachment()
		if err != nil {
			return nil, fmt.Errorf("attachments[%d]: %w", i, err)
		}
		out = append(out, att)
	}
	return out, nil
}

// =============================================================================
// 调试类型
// =============================================================================

// DecisionsResponse 最近决策列表
// @Description 决策列表响应
type DecisionsResponse struct {
	// 数据来源：cache 或 database
	Source    string                `json:"source"`
	Decisions []capability.Decision `json:"decisions"`
}
