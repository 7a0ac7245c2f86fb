package documents

// Document is one fixture file.
type Document struct {
	Name    string
	Content string
}

// Fixture contents. Each one is classified by the built-in rules.
const (
	// FinanceReport lands in 个人财务 with content date 2025-03-10.
	FinanceReport = "# 项目总结\n\n本季度理财与投资复盘。\n日期: 2025-03-10\n"

	// MeetingNotes lands in 会议沟通 with content date 2025-04-02.
	MeetingNotes = "# 周会纪要\n\n本次会议议题：工作同步。\n日期: 2025-04-02\n"

	// Unmatched has no keyword of any rule.
	Unmatched = "# 购物清单\n\n牛奶 面包 鸡蛋\n"
)

// Fixture is a named set of documents.
type Fixture interface {
	Name() string
	Documents() []Document
}

type fixture struct {
	name string
	docs []Document
}

func (f *fixture) Name() string          { return f.name }
func (f *fixture) Documents() []Document { return f.docs }

// Predefined fixtures.
var (
	// FixtureFinance is a single finance report.
	FixtureFinance Fixture = &fixture{
		name: "Finance",
		docs: []Document{{Name: "report.md", Content: FinanceReport}},
	}

	// FixtureMixed covers each tier and a skipped file.
	FixtureMixed Fixture = &fixture{
		name: "Mixed",
		docs: []Document{
			{Name: "report.md", Content: FinanceReport},
			{Name: "weekly.md", Content: MeetingNotes},
			{Name: "shopping.txt", Content: Unmatched},
			{Name: "empty.md", Content: ""},
			{Name: "setup.exe", Content: "MZ"},
		},
	}
)
