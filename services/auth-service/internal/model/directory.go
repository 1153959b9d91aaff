package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Org is a customer organisation owning scan targets.
type Org struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name"          json:"name"`
	OrgType     string        `bson:"org_type"      json:"orgtype"`
	Description string        `bson:"description"   json:"description"`
	IsActive    bool          `bson:"is_active"     json:"isactive"`
	CreatedAt   time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at"    json:"updatedAt"`
}

type OrgType struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name"          json:"name"`
	Description string        `bson:"description"   json:"description"`
	CreatedAt   time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at"    json:"updatedAt"`
}

// Group bundles privileges granted to the users of one org.
type Group struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string        `bson:"name"          json:"name"`
	Org        string        `bson:"org"           json:"org"`
	Privileges []string      `bson:"privileges"    json:"privileges"`
	CreatedAt  time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updated_at"    json:"updatedAt"`
}

type Privilege struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name"          json:"name"`
	Description string        `bson:"description"   json:"description"`
	CreatedAt   time.Time     `bson:"created_at"    json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at"    json:"updatedAt"`
}

func (o *Org) SetID(id bson.ObjectID)       { o.ID = id }
func (o *OrgType) SetID(id bson.ObjectID)   { o.ID = id }
func (g *Group) SetID(id bson.ObjectID)     { g.ID = id }
func (p *Privilege) SetID(id bson.ObjectID) { p.ID = id }

func (o *Org) Stamp(now time.Time, created bool) {
	if created {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

func (o *OrgType) Stamp(now time.Time, created bool) {
	if created {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

func (g *Group) Stamp(now time.Time, created bool) {
	if created {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
}

func (p *Privilege) Stamp(now time.Time, created bool) {
	if created {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// UpdateFields returns the fields replaced by an update.
func (o *Org) UpdateFields() bson.M {
	return bson.M{
		"name":        o.Name,
		"org_type":    o.OrgType,
		"description": o.Description,
		"is_active":   o.IsActive,
		"updated_at":  o.UpdatedAt,
	}
}

func (o *OrgType) UpdateFields() bson.M {
	return bson.M{
		"name":        o.Name,
		"description": o.Description,
		"updated_at":  o.UpdatedAt,
	}
}

func (g *Group) UpdateFields() bson.M {
	privileges := g.Privileges
	if privileges == nil {
		privileges = []string{}
	}
	return bson.M{
		"name":       g.Name,
		"org":        g.Org,
		"privileges": privileges,
		"updated_at": g.UpdatedAt,
	}
}

func (p *Privilege) UpdateFields() bson.M {
	return bson.M{
		"name":        p.Name,
		"description": p.Description,
		"updated_at":  p.UpdatedAt,
	}
}
