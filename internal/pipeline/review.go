package pipeline

import (
	"sort"

	"rolls/internal"
	"rolls/internal/util"
)

const DefaultNearDuplicateThreshold = 0.85

// NearDuplicate flags two roll entries that are literally different but look
// like the same person, e.g. "SGT Smith" and "SGT Smith (John)".
type NearDuplicate struct {
	A     internal.OutputRecord
	B     internal.OutputRecord
	Score float64
}

// FindNearDuplicates compares records of the same rank. Dedup stays literal;
// this only produces review hints.
func FindNearDuplicates(records []internal.OutputRecord, threshold float64) []NearDuplicate {
	if threshold <= 0 {
		threshold = DefaultNearDuplicateThreshold
	}

	byRank := map[string][]int{}
	for i, r := range records {
		byRank[r.Rank] = append(byRank[r.Rank], i)
	}

	out := []NearDuplicate{}
	for _, idxs := range byRank {
		for i := 0; i < len(idxs); i++ {
			a := records[idxs[i]]
			for j := i + 1; j < len(idxs); j++ {
				b := records[idxs[j]]
				score := nameScore(a, b)
				if score >= threshold {
					out = append(out, NearDuplicate{A: a, B: b, Score: score})
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].A.FullName < out[j].A.FullName
	})
	return out
}

func nameScore(a, b internal.OutputRecord) float64 {
	surnameA := util.NormalizeName(a.Surname)
	surnameB := util.NormalizeName(b.Surname)
	if surnameA == surnameB && (a.FirstName == "" || b.FirstName == "") {
		return 1
	}
	full := util.DiceCoefficient(util.NormalizeName(a.Surname+" "+a.FirstName), util.NormalizeName(b.Surname+" "+b.FirstName))
	surname := util.DiceCoefficient(surnameA, surnameB)
	return 0.65*full + 0.35*surname
}
