package core

import (
	"fmt"
	"sort"

	"lms/models"
)

// CompletionResult reports the outcome of an admissible completion write.
type CompletionResult int

const (
	ResultCreated CompletionResult = iota
	// ResultAlreadyCompleted is an idempotent success: the record existed
	// before this call, nothing changed.
	ResultAlreadyCompleted
)

// CompleteChapter decides whether a chapter completion may be recorded now
// and, if so, records it.
//
// Chapters form a strict prerequisite chain by sequence order: the chapter
// with the minimum order admits unconditionally, every other chapter
// requires a completion record for the chapter immediately before it in
// catalog order. Position is resolved from the sorted catalog, never from
// chapter id arithmetic, since ids need not be contiguous.
//
// The read-then-write is not atomic across the chain. A learner racing
// chapter k and k+1 may see k+1 rejected before k's write lands; a retry
// then succeeds. The ledger's unique constraint is the only lock.
func (e *Engine) CompleteChapter(id Identity, courseID, chapterID uint) (CompletionResult, error) {
	if id.SubjectID == 0 {
		return 0, ErrMissingCredential
	}

	course, err := e.catalog.GetCourse(courseID)
	if err != nil {
		return 0, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return 0, ErrCourseNotFound
	}

	chapters, err := e.catalog.GetChapters(courseID)
	if err != nil {
		return 0, fmt.Errorf("load chapters: %w", err)
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].SequenceOrder < chapters[j].SequenceOrder
	})

	pos := -1
	for i, ch := range chapters {
		if ch.ID == chapterID {
			pos = i
			break
		}
	}
	if pos == -1 {
		return 0, ErrChapterNotFound
	}

	if pos > 0 {
		prev := chapters[pos-1]
		done, err := e.ledger.HasCompleted(id.SubjectID, courseID, prev.ID)
		if err != nil {
			return 0, fmt.Errorf("check prerequisite: %w", err)
		}
		if !done {
			return 0, e.prerequisiteFailure(id, courseID, chapters[:pos])
		}
	}

	result, err := e.ledger.RecordCompletion(id.SubjectID, courseID, chapterID)
	if err != nil {
		return 0, fmt.Errorf("record completion: %w", err)
	}
	if result == RecordExists {
		return ResultAlreadyCompleted, nil
	}
	return ResultCreated, nil
}

// prerequisiteFailure scans the chapters before the requested one and
// builds the remediation info for the rejection.
func (e *Engine) prerequisiteFailure(id Identity, courseID uint, prior []models.Chapter) error {
	missing := 0
	next := 0
	for _, ch := range prior {
		done, err := e.ledger.HasCompleted(id.SubjectID, courseID, ch.ID)
		if err != nil {
			return fmt.Errorf("check prerequisite: %w", err)
		}
		if !done {
			missing++
			if next == 0 {
				next = ch.SequenceOrder
			}
		}
	}
	return &PrerequisiteError{Missing: missing, NextSequence: next}
}
