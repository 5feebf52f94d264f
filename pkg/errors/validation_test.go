package errors

import (
	"strings"
	"testing"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		fn    func(string) error
		input string
		want  Code // "" when valid
	}{
		{ValidateURL, "https://repo1.maven.org/maven2", ""},
		{ValidateURL, "http://localhost:8081/repository/maven-public/", ""},
		{ValidateURL, "", ErrCodeInvalidInput},
		{ValidateURL, "ftp://example.com", ErrCodeInvalidInput},
		{ValidateURL, "file:///etc/passwd", ErrCodeInvalidInput},
		{ValidateURL, "example.com", ErrCodeInvalidInput},
		{ValidateURL, "https://", ErrCodeInvalidInput},
		{ValidateURL, "HTTPS://repo.example.com", ""},

		{ValidatePath, "com/google/guava/guava/32.1.3-jre/guava-32.1.3-jre.pom", ""},
		{ValidatePath, "v1.2.3/lib-1.2.3.jar", ""},
		{ValidatePath, "", ErrCodeInvalidPath},
		{ValidatePath, strings.Repeat("a", 501), ErrCodeInvalidPath},
		{ValidatePath, "/etc/passwd", ErrCodeInvalidPath},
		{ValidatePath, "../../etc/passwd", ErrCodeInvalidPath},
		{ValidatePath, "com/../../x.pom", ErrCodeInvalidPath},
		{ValidatePath, "a\x00b", ErrCodeInvalidPath},
		{ValidatePath, "a\nb", ErrCodeInvalidPath},
		{ValidatePath, `com\example\a.pom`, ErrCodeInvalidPath},

		{ValidateRepositoryName, "maven-central", ""},
		{ValidateRepositoryName, "corp.nexus_2", ""},
		{ValidateRepositoryName, "", ErrCodeInvalidInput},
		{ValidateRepositoryName, "..", ErrCodeInvalidInput},
		{ValidateRepositoryName, "a/b", ErrCodeInvalidInput},
		{ValidateRepositoryName, "-leading", ErrCodeInvalidInput},
		{ValidateRepositoryName, "has space", ErrCodeInvalidInput},
		{ValidateRepositoryName, strings.Repeat("n", 129), ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		err := tt.fn(tt.input)
		if got := GetCode(err); got != tt.want {
			t.Errorf("validate(%q) = %v, want code %q", tt.input, err, tt.want)
		}
	}
}
