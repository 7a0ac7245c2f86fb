package templates

import "github.com/Squareczm/DocumentationTool/internal/model"

func defaultBases() map[string]BaseTemplate {
	return map[string]BaseTemplate{
		"flat":         {Name: "flat", Kind: model.BaseFlat, MaxDepth: 1},
		"hierarchical": {Name: "hierarchical", Kind: model.BaseHierarchical, Structure: []string{"{year}"}, MaxDepth: 3},
		"deep":         {Name: "deep", Kind: model.BaseDeep, Structure: []string{"{year}", "{month}"}, MaxDepth: 4},
	}
}

func defaultReservedNames() []string {
	return []string{
		"CON", "PRN", "AUX", "NUL",
		"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
		"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
	}
}

// DefaultYAML is the built-in template definition.
const DefaultYAML = `
default_template: hierarchical
base_templates:
  flat:
    kind: FLAT
    max_depth: 1
  hierarchical:
    kind: HIERARCHICAL
    structure: ["{year}"]
    max_depth: 3
  deep:
    kind: DEEP
    structure: ["{year}", "{month}"]
    max_depth: 4
organization_strategies:
  by_time:
    kind: BY_TIME
    patterns: ["{year}", "{month}"]
    variables: [year, month, quarter]
  by_project:
    kind: BY_PROJECT
    patterns: ["{project_name}"]
    variables: [project_name, year]
  by_status:
    kind: BY_STATUS
    patterns: ["{status}"]
    variables: [status, year]
category_templates:
  项目管理:
    base_template: hierarchical
    organization: by_project
    variants:
      by_project: ["{project_name}"]
  会议沟通:
    base_template: hierarchical
    organization: by_time
    variants:
      by_time: ["{month}"]
  个人财务:
    base_template: deep
naming_conventions:
  allowed_pattern: '[\p{L}\p{N}_\-. ()（）]'
  max_length: 50
validation:
  max_depth: 5
  max_folders_per_level: 100
`

// Default returns the built-in template set.
func Default() *Set {
	set, err := Parse([]byte(DefaultYAML))
	if err != nil {
		panic("templates: invalid built-in templates: " + err.Error())
	}
	return set
}
