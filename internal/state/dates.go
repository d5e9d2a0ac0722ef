package state

import (
	"time"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

func validDate(date string) bool {
	_, err := time.Parse(models.DateLayout, date)
	return err == nil
}

// Today formats t as a streak history date
func Today(t time.Time) string {
	return t.Format(models.DateLayout)
}
