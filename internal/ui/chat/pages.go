// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
)

// =============================================================================
// STATIC PAGES
// =============================================================================

// Member is one team member on the team page.
type Member struct {
	Name string
	Role string
	Desc string
}

// TeamIntro heads the team page.
const TeamIntro = "我們是來自 NextWave 2025 的黑客松團隊 - 「張三」。"

// Team lists the project members.
var Team = []Member{
	{"龍禹丞", "隊長 / 雲端架構", "資訊網路背景，掌握網路原理及架設，負責部署此專案到雲端主機以提供演示。"},
	{"陳嘉維", "AI 提示工程師", "具備提示工程與語言模型調校經驗，負責優化大語言模型提示詞，提升輸出內容的準確率與語意一致性。"},
	{"胡允豪", "後端開發 & MCP", "精通 Python 程式與 API 整合，負責串接對話介面與模型端服務（MCP），打造友善互動體驗。"},
	{"彭冠綸", "領域專家 / 法規整合", "熟悉交通與民事司法流程，負責整合法規資料庫、驗證法律相關疑問。"},
	{"呂育昇", "技術支援 / 爬蟲開發", "自學爬蟲背景，精通多種程式語言，負責提供技術支援與資料蒐集。"},
}

const aboutText = "本系統結合生成式 AI 與法律資料庫，打造一個可用對話方式進行互動的智慧法律顧問。" +
	"使用者可像與朋友聊天般提問，系統能以自然語言解析問題，結合法規與判例提供專業且幽默的回應。"

var techStack = [][2]string{
	{"RAG 檢索增強生成", "結合 ChromaDB 向量資料庫與 BM25 關鍵字檢索，精準鎖定法條。"},
	{"AI 查詢改寫", "使用 Gemini 2.0 Flash 自動修正錯字、補全主詞（如將「拒絕九策」修正為「拒絕酒測」）。"},
	{"MCP 協定", "符合 Model Context Protocol 標準，具備未來擴充性。"},
}

func (m *Model) pageWidth() int {
	if w := m.viewport.Width - 2; w > 10 {
		return w
	}
	return 10
}

func (m *Model) teamPage() string {
	t := m.theme
	w := m.pageWidth()
	var b strings.Builder
	b.WriteString(t.Section.Render("團隊成員"))
	b.WriteString("\n")
	b.WriteString(t.Paragraph.Width(w).Render(TeamIntro))
	for _, mem := range Team {
		b.WriteString("\n\n")
		b.WriteString(t.MemberName.Render(mem.Name) + "  " + t.MemberRole.Render(mem.Role))
		b.WriteString("\n")
		b.WriteString(t.Paragraph.Width(w).Render(mem.Desc))
	}
	return b.String()
}

func (m *Model) infoPage() string {
	t := m.theme
	w := m.pageWidth()
	var b strings.Builder
	b.WriteString(t.Section.Render("關於「今日張三又犯法了嗎？」"))
	b.WriteString("\n")
	b.WriteString(t.Paragraph.Width(w).Render(aboutText))
	b.WriteString("\n")
	b.WriteString(t.Section.Render("核心技術架構"))
	for _, item := range techStack {
		b.WriteString("\n")
		b.WriteString(t.Paragraph.Width(w).Render("- " + t.MemberName.Render(item[0]) + "：" + item[1]))
	}
	b.WriteString("\n")
	b.WriteString(t.Section.Render("快捷鍵"))
	b.WriteString("\n")

	h := help.New()
	h.Width = w
	h.ShowAll = true
	b.WriteString(h.View(m.keys))
	return b.String()
}

// welcome is the empty-conversation screen.
func (m *Model) welcome() string {
	t := m.theme
	w := m.pageWidth()
	var b strings.Builder
	b.WriteString(t.Section.Render("你好！我是你的 AI 法律助手"))
	b.WriteString("\n")
	b.WriteString(t.Paragraph.Width(w).Render("別擔心法律太難懂，簡單描述你的狀況，我會根據最新判決與知識圖譜幫你分析。"))
	b.WriteString("\n")
	b.WriteString(t.EmptyHint.Render(EmptyHint))
	if len(m.quickTopics) > 0 {
		b.WriteString("\n")
		for i, topic := range m.quickTopics {
			if i >= 9 {
				break
			}
			b.WriteString("\n")
			b.WriteString(t.StatusKey.Render("Alt+"+string(rune('1'+i))) + "  " + t.QuickTopic.Render(topic))
		}
	}
	return b.String()
}

// QuickTopicQuestion turns a topic label into the question sent for it.
func QuickTopicQuestion(topic string) string {
	return topic + "發生了什麼事？"
}
