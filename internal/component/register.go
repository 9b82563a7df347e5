// Package component holds the built-in world component types.
package component

import (
	"errors"

	"github.com/carbongdt/carbon/internal/world"
)

// Register adds every built-in type to r.
func Register(r *world.Registry) error {
	return errors.Join(
		r.RegisterObjectType(world.ObjectType{
			ID:         DirectionalLightType,
			Name:       "Directional Light",
			AllocNew:   NewDirectionalLight,
			AllocClone: cloneDirectionalLight,
		}),
		r.RegisterObjectType(world.ObjectType{
			ID:         HemisphereLightType,
			Name:       "Hemisphere Light",
			AllocNew:   NewHemisphereLight,
			AllocClone: cloneHemisphereLight,
		}),
		r.RegisterSubElementType(world.SubElementType{
			ID:         ProjectorTextureType,
			Name:       "Projector Texture",
			AllocNew:   NewProjectorTexture,
			AllocClone: cloneProjectorTexture,
		}),
		r.RegisterSceneElementType(world.SceneElementType{
			ID:         SkyBoxType,
			Name:       "Sky Box",
			AllocNew:   NewSkyBox,
			AllocClone: cloneSkyBox,
		}),
	)
}
