// Package jsonfile implements the region content stores on top of plain
// JSON files: one <region>_questions.json / <region>_answers.json pair per
// region under a single data directory. Every save replaces the whole file
// through a temp-file-and-rename, so readers never observe a partial write.
package jsonfile
