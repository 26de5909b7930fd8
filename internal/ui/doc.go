// Package ui shows the progress of a running command and its final summary.
//
// When stdout is a terminal, [Run] drives a bubbletea [Model]: a spinner and a bubbles progress bar
// fed by the [tasks.ProgressUpdate] channel of the running [Job]. When the job finishes with songs
// that couldn't be found, the model switches to a filterable list of them until the user quits.
// Without a terminal, [RunPlain] logs the same updates instead.
//
// [Summary.Render] prints the outcome: the headline ("N/M tracks downloaded.") and the not-found
// tracks as title (blue) - artists (magenta).
package ui
