// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Statute database endpoints (全國法規資料庫).
const (
	lawArticleURL = "https://law.moj.gov.tw/LawClass/LawSingle.aspx?pcode=%s&flno=%s"
	lawAllURL     = "https://law.moj.gov.tw/LawClass/LawAll.aspx?pcode="
	lawSearchURL  = "https://law.moj.gov.tw/Law/LawSearchResult.aspx?ty=ONEBAR&kw="
)

// LawEntry maps a canonical law name to its statute database code (pcode).
type LawEntry struct {
	Name string
	Code string
}

// LawTable lists the laws the client can link to directly. Lookup is by substring
// containment in either direction and the first matching entry wins, so longer names
// that contain a shorter one must come first.
var LawTable = []LawEntry{
	{Name: "中華民國刑法", Code: "C0000001"},
	{Name: "刑法", Code: "C0000001"},
	{Name: "道路交通管理處罰條例", Code: "K0040012"},
	{Name: "民法", Code: "B0000001"},
	{Name: "消費者保護法", Code: "J0170001"},
	{Name: "勞動基準法", Code: "N0030001"},
	{Name: "土地法", Code: "D0060001"},
	{Name: "個人資料保護法", Code: "I0050021"},
}

// articlePattern matches "<name>第<N>條" (traditional or simplified 條/条), allowing
// sub-articles such as 第184-1條.
var articlePattern = regexp.MustCompile(`^\s*(.+?)\s*第\s*(\d+(?:-\d+)?)\s*[條条]`)

// LookupLaw returns the table entry whose name contains, or is contained in, name.
func LookupLaw(name string) (LawEntry, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LawEntry{}, false
	}
	for _, e := range LawTable {
		if strings.Contains(name, e.Name) || strings.Contains(e.Name, name) {
			return e, true
		}
	}
	return LawEntry{}, false
}

// ResolveURL builds a statute database URL for a citation's visible text.
//
//   - "<law>第<N>條" with a known law -> direct article page
//   - a known law name alone          -> whole-law page
//   - anything else                   -> full-text search for the raw text
func ResolveURL(text string) string {
	normalized := norm.NFKC.String(text)

	if m := articlePattern.FindStringSubmatch(normalized); m != nil {
		if law, ok := LookupLaw(m[1]); ok {
			return fmt.Sprintf(lawArticleURL, law.Code, m[2])
		}
	} else if law, ok := LookupLaw(normalized); ok {
		return lawAllURL + law.Code
	}

	return lawSearchURL + url.QueryEscape(text)
}
