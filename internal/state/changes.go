// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package state

import "reflect"

// =============================================================================
// ARTIFACT TABS
// =============================================================================

// ArtifactTab names a user-facing artifact category. Tabs are derived from
// state on every change, never stored.
type ArtifactTab string

// Artifact categories tracked by the change detector and the advanced-mode
// tab bar. Marketing deliberately covers both seo_data and copywriting; the
// product treats them as one surface.
const (
	TabBrief     ArtifactTab = "brief"
	TabSitemap   ArtifactTab = "sitemap"
	TabMarketing ArtifactTab = "marketing"
	TabPreview   ArtifactTab = "preview"
	TabPRD       ArtifactTab = "prd"

	// TabActivity is the diagnostics surface (logs, agent reasoning). It is
	// opt-in and never badges, so the change detector ignores it.
	TabActivity ArtifactTab = "activity"
)

// TabSet is the set of artifact categories that changed between two
// snapshots.
type TabSet map[ArtifactTab]bool

// Contains reports whether the tab is in the set.
func (t TabSet) Contains(tab ArtifactTab) bool { return t[tab] }

// =============================================================================
// CHANGE DETECTION
// =============================================================================

// DetectChanges compares two snapshots and reports which artifact categories
// gained new content. A nil prev never registers changes: the first snapshot
// is a baseline, not an update. Comparison is by value, not identity, since
// re-decoded snapshots produce fresh object identities for unchanged data.
// The result feeds transient "new content" badges only and must never gate
// rendering.
func DetectChanges(prev, next *WebsiteState) TabSet {
	changed := TabSet{}
	if prev == nil || next == nil {
		return changed
	}

	if next.ProjectBrief != "" && next.ProjectBrief != prev.ProjectBrief {
		changed[TabBrief] = true
	}
	if len(next.Sitemap) > 0 && !reflect.DeepEqual(next.Sitemap, prev.Sitemap) {
		changed[TabSitemap] = true
	}
	if (len(next.SEOData) > 0 && !reflect.DeepEqual(next.SEOData, prev.SEOData)) ||
		(len(next.Copywriting) > 0 && !reflect.DeepEqual(next.Copywriting, prev.Copywriting)) {
		changed[TabMarketing] = true
	}
	if next.GeneratedCode != "" && next.GeneratedCode != prev.GeneratedCode {
		changed[TabPreview] = true
	}
	if next.PRDDocument != "" && next.PRDDocument != prev.PRDDocument {
		changed[TabPRD] = true
	}

	return changed
}
