package config

import (
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML 解码 models 段并记录 providers 的键顺序。
// 自动模式下的候选顺序即 Provider 注册顺序，因此不能依赖 map 遍历顺序。
func (m *ModelsConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ModelsConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*m = ModelsConfig(p)
	m.providerOrder = nil

	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "providers" || node.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		providers := node.Content[i+1]
		for j := 0; j+1 < len(providers.Content); j += 2 {
			m.providerOrder = append(m.providerOrder, providers.Content[j].Value)
		}
	}
	return nil
}

// ProviderIDs 返回 Provider ID：先按 YAML 中出现的顺序，
// 之后是代码中追加的条目（按字典序）
func (m ModelsConfig) ProviderIDs() []string {
	ids := make([]string, 0, len(m.Providers))
	for _, id := range m.providerOrder {
		if _, ok := m.Providers[id]; ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	var rest []string
	for id := range m.Providers {
		if !slices.Contains(ids, id) {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

// SetProvider 追加或替换一个 Provider 配置，新条目排在已有条目之后
func (m *ModelsConfig) SetProvider(id string, pc ProviderConfig) {
	if m.Providers == nil {
		m.Providers = make(map[string]ProviderConfig)
	}
	if _, exists := m.Providers[id]; !exists {
		m.providerOrder = append(m.providerOrder, id)
	}
	m.Providers[id] = pc
}
