package recruiting

import "context"

type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var out []Tag
	if err := c.getJSON(ctx, "list tags", tagsPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}
