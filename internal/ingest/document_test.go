package ingest

import "testing"

func TestParseFrontmatter(t *testing.T) {
	raw := `---
id: chapter-3
title: "Sensing and Perception"
sidebar_position: 3
---

# Sensing and Perception

Body text here.`

	meta, body := ParseFrontmatter(raw)
	if meta["id"] != "chapter-3" {
		t.Fatalf("id = %q", meta["id"])
	}
	if meta["title"] != "Sensing and Perception" {
		t.Fatalf("quotes should be stripped, got %q", meta["title"])
	}
	if meta["sidebar_position"] != "3" {
		t.Fatalf("sidebar_position = %q", meta["sidebar_position"])
	}
	if body == "" || body[0] != '#' {
		t.Fatalf("body should start at the first heading, got %q", body[:20])
	}
}

func TestParseFrontmatterAbsent(t *testing.T) {
	raw := "# Title\n\nNo frontmatter here."
	meta, body := ParseFrontmatter(raw)
	if len(meta) != 0 {
		t.Fatalf("expected empty meta, got %v", meta)
	}
	if body != raw {
		t.Fatalf("body should be unchanged")
	}
}

func TestParseFrontmatterUnterminated(t *testing.T) {
	raw := "---\nid: broken\nno closing delimiter"
	meta, body := ParseFrontmatter(raw)
	if len(meta) != 0 || body != raw {
		t.Fatalf("unterminated frontmatter should be treated as body")
	}
}

func TestExtractSections(t *testing.T) {
	body := `Preamble before any heading.

## Kinematics

Forward kinematics maps joint angles to pose.

### Jacobians

The Jacobian relates joint velocity to end effector velocity.

## Dynamics

Torque computations follow.`

	sections := ExtractSections(body)
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	if sections[0].Title != "Introduction" || sections[0].Level != 1 {
		t.Fatalf("content before the first heading should land in Introduction, got %+v", sections[0])
	}
	if sections[1].Title != "Kinematics" || sections[1].Level != 2 {
		t.Fatalf("unexpected section: %+v", sections[1])
	}
	if sections[2].Title != "Jacobians" || sections[2].Level != 3 {
		t.Fatalf("unexpected section: %+v", sections[2])
	}
	if sections[3].Title != "Dynamics" {
		t.Fatalf("trailing section should be emitted, got %+v", sections[3])
	}
}

func TestExtractSectionsNoLeadingContent(t *testing.T) {
	sections := ExtractSections("## Only\ncontent")
	if len(sections) != 1 || sections[0].Title != "Only" {
		t.Fatalf("empty Introduction should be skipped, got %+v", sections)
	}
}
