// Package digest groups unsent articles into delivery payloads.
package digest

import (
	"newsagent/internal/campaign"
	"newsagent/internal/domain"
)

// FallbackKey groups articles that carry neither a campaign tag nor a keyword.
const FallbackKey = "Other"

type Group struct {
	Key      string
	Articles []domain.Article
}

// Digest is one outbound message worth of groups.
type Digest struct {
	Campaign  string
	Recipient string
	Groups    []Group
}

func (d Digest) Len() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Articles)
	}
	return n
}

// IDs returns the ids of every included article, in group order.
func (d Digest) IDs() []int64 {
	ids := make([]int64, 0, d.Len())
	for _, g := range d.Groups {
		for _, a := range g.Articles {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func (d Digest) Keys() []string {
	keys := make([]string, 0, len(d.Groups))
	for _, g := range d.Groups {
		keys = append(keys, g.Key)
	}
	return keys
}

// Plan splits one delivery run into per-campaign digests and the default digest.
// An article appears in at most one of them.
type Plan struct {
	Campaigns []Digest
	Default   Digest
}

func GroupKey(a domain.Article) string {
	if a.CampaignTag != "" {
		return a.CampaignTag
	}
	if a.Keyword != "" {
		return a.Keyword
	}
	return FallbackKey
}

// Batch groups articles by GroupKey in order of first appearance. Each group
// keeps at most limit articles; limit <= 0 means no cap.
func Batch(articles []domain.Article, limit int) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, a := range articles {
		key := GroupKey(a)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		if limit > 0 && len(groups[i].Articles) >= limit {
			continue
		}
		groups[i].Articles = append(groups[i].Articles, a)
	}

	return groups
}

// Split routes articles tagged with an active campaign to that campaign's
// recipient, uncapped. Everything else goes to the default digest, capped per group.
func Split(articles []domain.Article, active []domain.Campaign, limit int, defaultRecipient string) Plan {
	byName := campaign.ByName(active)
	perCampaign := make(map[string][]domain.Article)
	var rest []domain.Article

	for _, a := range articles {
		if _, ok := byName[a.CampaignTag]; ok && a.CampaignTag != "" {
			perCampaign[a.CampaignTag] = append(perCampaign[a.CampaignTag], a)
			continue
		}
		rest = append(rest, a)
	}

	var plan Plan
	seen := make(map[string]bool)
	for _, c := range active {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		items := perCampaign[c.Name]
		if len(items) == 0 {
			continue
		}
		plan.Campaigns = append(plan.Campaigns, Digest{
			Campaign:  c.Name,
			Recipient: campaign.Recipient(c, defaultRecipient),
			Groups:    Batch(items, 0),
		})
	}

	plan.Default = Digest{
		Recipient: defaultRecipient,
		Groups:    Batch(rest, limit),
	}

	return plan
}
