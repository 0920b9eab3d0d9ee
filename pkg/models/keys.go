package models

import "fmt"

// Blob store keys. Everything belonging to a book lives under its prefix so
// deleting a book can drop all of it at once.

func BookPrefix(bookID int) string {
	return fmt.Sprintf("books/%d", bookID)
}

func BookCoverKey(bookID int) string {
	return BookPrefix(bookID) + "/cover"
}

func ChapterPrefix(bookID, number int) string {
	return fmt.Sprintf("books/%d/%d", bookID, number)
}

func ChapterTextKey(bookID, number int) string {
	return ChapterPrefix(bookID, number) + "/text.txt"
}

func ChapterAudioKey(bookID, number int) string {
	return ChapterPrefix(bookID, number) + "/audio.mp3"
}
