package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/username/riconcilia/src/logger"
	"github.com/username/riconcilia/src/models"
	"github.com/username/riconcilia/src/security/validation"
)

// FeedSet holds the discovered file path of every input; empty means not uploaded.
type FeedSet struct {
	POSExport string `json:"pos_export"`
	Cash      string `json:"cash,omitempty"`
	BankCard  string `json:"bank_card,omitempty"`
	FuelCard  string `json:"fuel_card,omitempty"`
	Voucher   string `json:"voucher,omitempty"`
	MobilePay string `json:"mobile_pay,omitempty"`
}

// PathFor returns the settlement feed path of a category.
func (f FeedSet) PathFor(c models.Category) string {
	switch c {
	case models.CategoryCash:
		return f.Cash
	case models.CategoryBankCard:
		return f.BankCard
	case models.CategoryFuelCard:
		return f.FuelCard
	case models.CategoryVoucher:
		return f.Voucher
	case models.CategoryMobilePay:
		return f.MobilePay
	}
	return ""
}

type feedRule struct {
	slot     string
	keywords []string
	prefix   string
	exclude  string
}

// Rules are evaluated in order and the first match classifies the file.
// Users name uploads either by content or by the numbered slot of the upload form.
var feedRules = []feedRule{
	{slot: "pos_export", keywords: []string{"fortech"}, prefix: "a_"},
	{slot: string(models.CategoryCash), keywords: []string{"contanti"}, prefix: "1_"},
	{slot: string(models.CategoryBankCard), keywords: []string{"carte bancarie", "numia"}, prefix: "2_", exclude: "petrolifere"},
	{slot: string(models.CategoryFuelCard), keywords: []string{"petrolifere", "azzurro"}, prefix: "3_"},
	{slot: string(models.CategoryVoucher), keywords: []string{"buoni", "rosso"}, prefix: "4_"},
	{slot: string(models.CategoryMobilePay), keywords: []string{"satispay", "grigio"}, prefix: "5_"},
}

// ClassifyFeedName returns the slot a file name belongs to, or "" when none matches.
func ClassifyFeedName(name string) string {
	lower := strings.ToLower(filepath.Base(name))
	normalized := strings.ReplaceAll(lower, "_", " ")

	for _, rule := range feedRules {
		if rule.exclude != "" && strings.Contains(normalized, rule.exclude) {
			continue
		}
		if strings.HasPrefix(lower, rule.prefix) {
			return rule.slot
		}
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.slot
			}
		}
	}
	return ""
}

// DiscoverFeeds scans dir (not recursively) for tabular files and assigns them to slots
// by name. Files are visited in name order; a later file replaces an earlier one in the same slot.
func DiscoverFeeds(dir string) (FeedSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return FeedSet{}, fmt.Errorf("read input directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var set FeedSet
	for _, e := range entries {
		if e.IsDir() || !validation.IsFeedFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		slot := ClassifyFeedName(e.Name())
		if slot == "" {
			logger.L.Debug("Ignoring unrecognized input file", "file", e.Name())
			continue
		}
		target := set.slot(slot)
		if *target != "" {
			logger.L.Warn("Multiple files for the same feed, keeping the last one", "feed", slot, "replaced", filepath.Base(*target), "kept", e.Name())
		}
		*target = path
	}
	return set, nil
}

func (f *FeedSet) slot(name string) *string {
	switch name {
	case string(models.CategoryCash):
		return &f.Cash
	case string(models.CategoryBankCard):
		return &f.BankCard
	case string(models.CategoryFuelCard):
		return &f.FuelCard
	case string(models.CategoryVoucher):
		return &f.Voucher
	case string(models.CategoryMobilePay):
		return &f.MobilePay
	}
	return &f.POSExport
}
