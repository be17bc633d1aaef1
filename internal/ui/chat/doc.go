// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen legal assistant interface.

The Model is a Bubble Tea model that lays out four regions:

	+---------------------------------------------+
	| header: brand, view tabs                     |
	+-----------+---------------------------------+
	| sessions  | conversation / team / info       |
	|           |                                  |
	+-----------+---------------------------------+
	| input line                                   |
	| status bar                                   |
	+---------------------------------------------+

# Conversation

Assistant replies are markdown. Citation links are rewritten to inert labels by
citation.Annotate before glamour renders them, and each label's position in the
rendered transcript is recorded so mouse motion can be hit-tested against it.

# Citation panel

Hovering a label opens a statute preview through a tooltip.Controller. The
controller owns open/close timing; the model only reports pointer transitions
(enter/leave trigger, enter/leave panel) and re-reads Controller.Current after
each one. Close events fired from the controller's timer arrive as messages.

# Callbacks

The hover controller, the speech capture and the config watcher call back from
other goroutines, and some of them also call back synchronously from inside
Update. All of them post through a single ordered queue that forwards to
tea.Program.Send from its own goroutine, so Update never blocks on itself.

# Usage

	err := chat.Run(ctx, chat.Deps{
		Config:     cfg,
		State:      state,
		Sessions:   store,
		Dispatcher: dispatcher,
	})
*/
package chat
