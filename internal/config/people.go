package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hitoshi/wherebot/internal/model"
)

// peopleFile は人物ロスターYAMLファイルのトップレベル構造。
type peopleFile struct {
	People []*model.Person `yaml:"people"`
}

// LoadPeople はYAMLファイルから人物ロスターを読み込む。
// 名前は必須かつ一意でなければならない。user_nameはsender照合のため小文字に正規化する。
// ロスターはプロセス起動時に1回だけ読み込み、以後イミュータブルとして扱う。
func LoadPeople(path string) ([]*model.Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read people file: %w", err)
	}

	var pf peopleFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse people file: %w", err)
	}

	if len(pf.People) == 0 {
		return nil, fmt.Errorf("people file %s contains no people", path)
	}

	seen := make(map[string]bool, len(pf.People))
	for i, p := range pf.People {
		if p == nil || p.Name == "" {
			return nil, fmt.Errorf("people[%d]: name is required", i)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return nil, fmt.Errorf("people[%d]: duplicate name %q", i, p.Name)
		}
		seen[key] = true
		p.UserName = strings.ToLower(p.UserName)
	}

	return pf.People, nil
}
