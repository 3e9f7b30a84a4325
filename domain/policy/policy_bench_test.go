package policy_test

import (
	"testing"

	"github.com/reglet-dev/reglet-verify/domain/entities"
	"github.com/reglet-dev/reglet-verify/domain/policy"
)

func BenchmarkRuleSetMatch_Prefix(b *testing.B) {
	rules := entities.NewRuleSet(entities.CategoryFilesystem,
		[]string{"java.io.File.", "java.io.FileInputStream.", "java.nio.file.Files.", "java.nio.file.Path."},
		policy.PrefixMatcher{})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rules.Match("java.nio.file.Files.readString")
	}
}

func BenchmarkRuleSetMatch_Glob(b *testing.B) {
	rules := entities.NewRuleSet(entities.CategoryNetwork,
		[]string{"java.net.**", "javax.net.**"},
		policy.NewGlobMatcher())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rules.Match("java.net.http.HttpClient.send")
	}
}
