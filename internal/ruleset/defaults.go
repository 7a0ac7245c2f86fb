package ruleset

import "github.com/Squareczm/DocumentationTool/internal/model"

// DefaultRules returns the built-in rules used when no rule file exists.
func DefaultRules() []model.ClassificationRule {
	return []model.ClassificationRule{
		{
			Category:       "技术开发",
			Description:    "技术方案、开发文档、系统设计",
			Keywords:       []string{"技术", "开发", "系统", "软件", "tech", "dev"},
			TargetPatterns: []string{"技术", "开发"},
			Priority:       1,
			FileTypes:      []string{".md", ".txt", ".docx"},
		},
		{
			Category:       "项目管理",
			Description:    "项目计划、进度报告、项目总结",
			Keywords:       []string{"项目", "管理", "进度", "里程碑", "project"},
			TargetPatterns: []string{"项目", "管理"},
			Priority:       2,
			FileTypes:      []string{".docx", ".xlsx", ".md"},
		},
		{
			Category:       "会议沟通",
			Description:    "会议纪要、沟通记录",
			Keywords:       []string{"会议", "纪要", "议题", "meeting"},
			TargetPatterns: []string{"会议", "沟通"},
			Priority:       3,
			FileTypes:      []string{".docx", ".md", ".txt"},
		},
		{
			Category:       "个人财务",
			Description:    "理财、投资、账单与预算",
			Keywords:       []string{"理财", "投资", "预算", "账单", "基金"},
			TargetPatterns: []string{"个人财务"},
			Priority:       2,
			FileTypes:      []string{".xlsx", ".pdf", ".md"},
		},
	}
}

// Default returns a RuleSet built from the built-in rules and tunables.
func Default() *RuleSet {
	set, err := New(DefaultRules(), DefaultStrategy(), DefaultFallbackFolders)
	if err != nil {
		panic("ruleset: invalid built-in rules: " + err.Error())
	}
	return set
}
