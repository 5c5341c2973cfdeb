package jobsync

import (
	"slices"

	"jobsync/internal/model"
)

// RelationalPlan is the change set for one relational sync run.
type RelationalPlan struct {
	ToSave   []model.JobRecord
	ToDelete []int64
}

// IndexPlan is the change set for one search sync run.
type IndexPlan struct {
	ToAdd    []model.SearchDocument
	ToDelete []int64
}

// PlanRelational diffs the uids currently stored against the feed records.
// With updateAll every feed record is saved; otherwise only records whose
// uid is not stored yet.
func PlanRelational(current []int64, jobs []model.JobRecord, updateAll bool) RelationalPlan {
	stored := toSet(current)
	inFeed := make(map[int64]struct{}, len(jobs))
	for _, j := range jobs {
		if j.UID != 0 {
			inFeed[j.UID] = struct{}{}
		}
	}

	plan := RelationalPlan{ToDelete: difference(stored, inFeed)}
	if updateAll {
		plan.ToSave = jobs
		return plan
	}
	for _, j := range jobs {
		if j.UID == 0 {
			continue
		}
		if _, ok := stored[j.UID]; !ok {
			plan.ToSave = append(plan.ToSave, j)
		}
	}
	return plan
}

// PlanIndex diffs the uids currently indexed against the feed documents.
// With force every document is added; otherwise only documents whose uid
// is not indexed yet.
func PlanIndex(current []int64, docs []model.SearchDocument, force bool) IndexPlan {
	indexed := toSet(current)
	inFeed := make(map[int64]struct{}, len(docs))
	for _, d := range docs {
		inFeed[d.UID] = struct{}{}
	}

	plan := IndexPlan{ToDelete: difference(indexed, inFeed)}
	if force {
		plan.ToAdd = docs
		return plan
	}
	for _, d := range docs {
		if _, ok := indexed[d.UID]; !ok {
			plan.ToAdd = append(plan.ToAdd, d)
		}
	}
	return plan
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// difference returns the sorted members of a that are not in b.
func difference(a, b map[int64]struct{}) []int64 {
	var out []int64
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
