// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jeranaias/lawassist-tui/internal/citation"
	"github.com/jeranaias/lawassist-tui/internal/model"
)

// Statute is one canned article the mock backend can cite.
type Statute struct {
	Law     string
	Article string
	Text    string
}

// Ref returns the citation label, e.g. "民法第184條".
func (s Statute) Ref() string {
	return fmt.Sprintf("%s第%s條", s.Law, s.Article)
}

// Link returns the markdown citation link for the statute.
func (s Statute) Link() string {
	return fmt.Sprintf("[%s](%s%s)", s.Ref(), citation.SchemePrefix,
		base64.StdEncoding.EncodeToString([]byte(s.Text)))
}

// topic groups the statutes and analysis for one kind of question.
type topic struct {
	keywords []string
	domain   string
	risk     string
	statutes []Statute
}

var topics = []topic{
	{
		keywords: []string{"紅燈", "闖紅燈", "交通", "車禍", "事故", "酒測", "超速"},
		domain:   "交通",
		risk:     "中",
		statutes: []Statute{
			{"道路交通管理處罰條例", "53", "汽車駕駛人，行經有燈光號誌管制之交岔路口闖紅燈者，處新臺幣一千八百元以上五千四百元以下罰鍰。"},
			{"刑法", "284", "因過失傷害人者，處一年以下有期徒刑、拘役或十萬元以下罰金；致重傷者，處三年以下有期徒刑、拘役或三十萬元以下罰金。"},
		},
	},
	{
		keywords: []string{"租屋", "房東", "押金", "租金", "租賃"},
		domain:   "民事",
		risk:     "低",
		statutes: []Statute{
			{"民法", "429", "租賃物之修繕，除契約另有訂定或另有習慣外，由出租人負擔。"},
			{"民法", "455", "承租人於租賃關係終止後，應返還租賃物；租賃物有生產力者，並應保持其生產狀態，返還出租人。"},
		},
	},
	{
		keywords: []string{"借錢", "借貸", "欠款", "還錢", "債務"},
		domain:   "民事",
		risk:     "中",
		statutes: []Statute{
			{"民法", "478", "借用人應於約定期限內，返還與借用物種類、品質、數量相同之物。未定返還期限者，借用人得隨時返還，貸與人亦得定一個月以上之相當期限，催告返還。"},
		},
	},
	{
		keywords: []string{"誹謗", "網路", "名譽", "公然侮辱", "留言"},
		domain:   "刑事",
		risk:     "高",
		statutes: []Statute{
			{"刑法", "310", "意圖散布於眾，而指摘或傳述足以毀損他人名譽之事者，為誹謗罪，處一年以下有期徒刑、拘役或一萬五千元以下罰金。"},
			{"民法", "184", "因故意或過失，不法侵害他人之權利者，負損害賠償責任。"},
		},
	},
}

var fallbackTopic = topic{
	domain: "一般",
	risk:   "低",
	statutes: []Statute{
		{"民法", "184", "因故意或過失，不法侵害他人之權利者，負損害賠償責任。"},
	},
}

// Answer is a generated reply.
type Answer struct {
	Reply    string
	Analysis *model.AnalysisSummary
}

// Responder produces an answer for a question in the requested style.
type Responder func(question, style string) Answer

// CannedResponder answers from a small built-in table of statutes keyed by keyword.
func CannedResponder(question, style string) Answer {
	t, hits := matchTopic(question)

	var b strings.Builder
	switch style {
	case string(model.StyleProfessional):
		fmt.Fprintf(&b, "依您所述，本案屬於**%s**領域，相關規定如下：\n\n", t.domain)
	case string(model.StyleConcise):
		b.WriteString("相關法條：\n\n")
	default:
		fmt.Fprintf(&b, "張三又來了嗎？先別慌，這題屬於**%s**問題，我們來看看法條怎麼說：\n\n", t.domain)
	}
	for _, s := range t.statutes {
		fmt.Fprintf(&b, "- %s\n", s.Link())
	}
	if style != string(model.StyleConcise) {
		b.WriteString("\n以上僅供參考，實際個案仍請諮詢律師。")
	}

	return Answer{
		Reply: b.String(),
		Analysis: &model.AnalysisSummary{
			Domain:    t.domain,
			RiskLevel: t.risk,
			Keywords:  hits,
		},
	}
}

func matchTopic(question string) (topic, []string) {
	for _, t := range topics {
		var hits []string
		for _, kw := range t.keywords {
			if strings.Contains(question, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			return t, hits
		}
	}
	return fallbackTopic, nil
}
