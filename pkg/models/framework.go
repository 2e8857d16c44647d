package models

// Framework is the automation target code is generated and executed for.
type Framework string

const (
	FrameworkAgent             Framework = "agent-framework"
	FrameworkLegacyWebDriver   Framework = "legacy-webdriver"
	FrameworkModernAsyncDriver Framework = "modern-async-driver"
)

// Frameworks lists every supported framework.
func Frameworks() []Framework {
	return []Framework{FrameworkAgent, FrameworkLegacyWebDriver, FrameworkModernAsyncDriver}
}

func (f Framework) Valid() bool {
	for _, supported := range Frameworks() {
		if f == supported {
			return true
		}
	}

	return false
}
