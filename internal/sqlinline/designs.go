package sqlinline

const QInsertDesign = `--sql 7f2c1ad4-9b3e-4f61-8a2d-51c09e7b4d13
insert into designs (title, design_type, blueprint, visualization_prompt, vision_provider, country_code)
values ($1, $2, $3::jsonb, $4, $5, $6)
returning id, created_at;
`

const QSelectDesignByID = `--sql c84d6f02-3a17-4be5-9c48-0d2e6a91f375
select id, title, design_type, blueprint, visualization_prompt, vision_provider, country_code, created_at, updated_at
from designs
where id = $1::uuid;
`

const QListDesigns = `--sql 1b9e4c77-52d0-4aa8-b3f1-8e06c2d94a51
select id, title, design_type, blueprint, visualization_prompt, vision_provider, country_code, created_at, updated_at
from designs
order by created_at desc
limit $1 offset $2;
`

const QDeleteDesign = `--sql 3c0f82d6-91ae-47b5-8d24-a67e05c1f9b8
delete from designs
where id = $1::uuid;
`

const QTouchDesign = `--sql e5a30d18-7c46-4291-bd9f-64f8b1a0c273
update designs
set updated_at = now()
where id = $1::uuid;
`
