// Package fixtures 提供能力运行器测试使用的样例数据。
package fixtures

import (
	"fmt"

	"github.com/BaSui01/capflow/llm/capability"
)

// AudioBytes 是一段伪造的 OGG 音频内容
var AudioBytes = []byte("OggS\x00\x02fake-audio-payload")

// ImageBytes 是一段伪造的 PNG 图像内容
var ImageBytes = []byte("\x89PNG\r\n\x1a\nfake-image-payload")

// AudioAttachment 返回一个内联音频附件
func AudioAttachment() capability.Attachment {
	return capability.Attachment{MIME: "audio/ogg", FileName: "note.ogg", Data: AudioBytes}
}

// AudioAttachments 返回 n 个内容互不相同的音频附件
func AudioAttachments(n int) []capability.Attachment {
	out := make([]capability.Attachment, n)
	for i := range out {
		out[i] = capability.Attachment{
			MIME:     "audio/ogg",
			FileName: fmt.Sprintf("clip-%d.ogg", i),
			Data:     []byte(fmt.Sprintf("clip-%d", i)),
		}
	}
	return out
}

// ImageAttachment 返回一个内联图像附件
func ImageAttachment() capability.Attachment {
	return capability.Attachment{MIME: "image/png", FileName: "photo.png", Data: ImageBytes}
}

// TextAttachment 返回一个用于嵌入的文本附件
func TextAttachment(text string) capability.Attachment {
	return capability.Attachment{MIME: "text/plain", Text: text}
}

// BoolPtr 返回布尔值指针，用于三态开关配置
func BoolPtr(v bool) *bool {
	return &v
}
